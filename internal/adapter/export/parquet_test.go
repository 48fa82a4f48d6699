package export

import (
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
)

func TestSamples(t *testing.T) {
	hr := 72.5
	steps := 12
	ts := time.Date(2024, 1, 5, 7, 0, 0, 0, time.UTC)
	samples := []*sensor.Sample{
		{SampleID: "a", SessionID: "s", Timestamp: ts, Measurements: sensor.Measurements{HeartRate: &hr, Steps: &steps}},
		{SampleID: "b", SessionID: "s", Timestamp: ts.Add(time.Second)},
	}

	data, err := Samples(samples)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(sampleRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.EqualValues(t, 2, pr.GetNumRows())

	rows := make([]sampleRow, 2)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "a", rows[0].SampleID)
	assert.Equal(t, ts.UnixMilli(), rows[0].Timestamp)
	require.NotNil(t, rows[0].HeartRate)
	assert.Equal(t, hr, *rows[0].HeartRate)
	assert.EqualValues(t, 12, *rows[0].Steps)
	assert.Nil(t, rows[1].HeartRate)
	assert.Nil(t, rows[1].Steps)
}

func TestSamplesEmpty(t *testing.T) {
	data, err := Samples(nil)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data[:4]))
}
