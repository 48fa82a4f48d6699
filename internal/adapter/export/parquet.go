// Package export writes session samples as SNAPPY compressed parquet.
package export

import (
	"fmt"

	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const ContentType = "application/vnd.apache.parquet"

type sampleRow struct {
	SampleID    string   `parquet:"name=sample_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SessionID   string   `parquet:"name=session_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp   int64    `parquet:"name=ts, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	HeartRate   *float64 `parquet:"name=heart_rate, type=DOUBLE, repetitiontype=OPTIONAL"`
	Temperature *float64 `parquet:"name=temperature, type=DOUBLE, repetitiontype=OPTIONAL"`
	SpO2        *float64 `parquet:"name=spo2, type=DOUBLE, repetitiontype=OPTIONAL"`
	AccelX      *float64 `parquet:"name=accel_x, type=DOUBLE, repetitiontype=OPTIONAL"`
	AccelY      *float64 `parquet:"name=accel_y, type=DOUBLE, repetitiontype=OPTIONAL"`
	AccelZ      *float64 `parquet:"name=accel_z, type=DOUBLE, repetitiontype=OPTIONAL"`
	GyroX       *float64 `parquet:"name=gyro_x, type=DOUBLE, repetitiontype=OPTIONAL"`
	GyroY       *float64 `parquet:"name=gyro_y, type=DOUBLE, repetitiontype=OPTIONAL"`
	GyroZ       *float64 `parquet:"name=gyro_z, type=DOUBLE, repetitiontype=OPTIONAL"`
	Latitude    *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude   *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Altitude    *float64 `parquet:"name=altitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	ECGValue    *float64 `parquet:"name=ecg_value, type=DOUBLE, repetitiontype=OPTIONAL"`
	Steps       *int64   `parquet:"name=steps, type=INT64, repetitiontype=OPTIONAL"`
	Calories    *float64 `parquet:"name=calories, type=DOUBLE, repetitiontype=OPTIONAL"`
	Battery     *float64 `parquet:"name=battery, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func toRow(s *sensor.Sample) sampleRow {
	row := sampleRow{
		SampleID:    s.SampleID,
		SessionID:   s.SessionID,
		Timestamp:   s.Timestamp.UnixMilli(),
		HeartRate:   s.HeartRate,
		Temperature: s.Temperature,
		SpO2:        s.SpO2,
		AccelX:      s.AccelX,
		AccelY:      s.AccelY,
		AccelZ:      s.AccelZ,
		GyroX:       s.GyroX,
		GyroY:       s.GyroY,
		GyroZ:       s.GyroZ,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Altitude:    s.Altitude,
		ECGValue:    s.ECGValue,
		Calories:    s.Calories,
		Battery:     s.Battery,
	}
	if s.Steps != nil {
		steps := int64(*s.Steps)
		row.Steps = &steps
	}
	return row
}

// Samples encodes samples in the given order. An empty slice yields a valid
// file with no rows.
func Samples(samples []*sensor.Sample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(sampleRow), 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, s := range samples {
		if err := pw.Write(toRow(s)); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write sample %s: %w", s.SampleID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
