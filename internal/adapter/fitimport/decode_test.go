package fitimport

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"
)

func buildFile(t *testing.T, records ...*fit.RecordMsg) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)
	activity, err := file.Activity()
	require.NoError(t, err)
	activity.Records = append(activity.Records, records...)

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestRecordToReadingSkipsInvalidFields(t *testing.T) {
	rec := fit.NewRecordMsg()
	rec.HeartRate = 135

	r := recordToReading(rec)

	require.NotNil(t, r.HeartRate)
	assert.Equal(t, 135.0, *r.HeartRate)
	assert.Nil(t, r.Timestamp)
	assert.Nil(t, r.Temperature)
	assert.Nil(t, r.Latitude)
	assert.Nil(t, r.Longitude)
	assert.Nil(t, r.Altitude)
	assert.Nil(t, r.Calories)
}

func TestDecode(t *testing.T) {
	start := time.Date(2024, 1, 5, 7, 0, 0, 0, time.UTC)
	first := fit.NewRecordMsg()
	first.Timestamp = start
	first.HeartRate = 120
	first.Temperature = 31
	second := fit.NewRecordMsg()
	second.Timestamp = start.Add(time.Second)
	second.HeartRate = 125

	readings, err := Decode(bytes.NewReader(buildFile(t, first, second)))
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.True(t, start.Equal(*readings[0].Timestamp))
	assert.Equal(t, 120.0, *readings[0].HeartRate)
	assert.Equal(t, 31.0, *readings[0].Temperature)
	assert.Equal(t, 125.0, *readings[1].HeartRate)
	assert.Nil(t, readings[1].Temperature)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a fit file")))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeRejectsEmptyActivity(t *testing.T) {
	_, err := Decode(bytes.NewReader(buildFile(t)))
	require.ErrorIs(t, err, ErrNoRecords)
}
