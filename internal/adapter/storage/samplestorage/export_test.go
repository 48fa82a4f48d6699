//go:build integration

package samplestorage

const BatchChunkRows = batchChunkRows
