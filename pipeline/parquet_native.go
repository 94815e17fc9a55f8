//go:build !js

package pipeline

import (
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type kinematicsParquetRow struct {
	Session             string  `parquet:"name=session, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SampleIndex         int64   `parquet:"name=sample_index, type=INT64"`
	TSUTCISO            string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElapsedS            float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Latitude            float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude           float64 `parquet:"name=longitude, type=DOUBLE"`
	AltitudeM           float64 `parquet:"name=altitude_m, type=DOUBLE"`
	DistanceIncrementKm float64 `parquet:"name=distance_increment_km, type=DOUBLE"`
	CumulativeKm        float64 `parquet:"name=cumulative_km, type=DOUBLE"`
	SpeedMPS            float64 `parquet:"name=speed_mps, type=DOUBLE"`
	SpeedKmh            float64 `parquet:"name=speed_kmh, type=DOUBLE"`
}

func writeKinematicsParquet(path string, samples []KinematicSample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := encodeKinematicsParquet(fw, samples); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func marshalKinematicsParquet(samples []KinematicSample) ([]byte, error) {
	fw := buffer.NewBufferFile()
	if err := encodeKinematicsParquet(fw, samples); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// encodeKinematicsParquet writes samples as snappy-compressed rows. Missing
// altitude is stored as NaN.
func encodeKinematicsParquet(fw source.ParquetFile, samples []KinematicSample) error {
	pw, err := writer.NewParquetWriter(fw, new(kinematicsParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := kinematicsParquetRow{
			Session:             s.Session,
			SampleIndex:         int64(s.SampleIndex),
			TSUTCISO:            s.TSUTCISO,
			ElapsedS:            s.ElapsedS,
			Latitude:            s.Latitude,
			Longitude:           s.Longitude,
			AltitudeM:           valueOrNaN(s.AltitudeM),
			DistanceIncrementKm: s.DistanceIncrementKm,
			CumulativeKm:        s.CumulativeKm,
			SpeedMPS:            s.SpeedMPS,
			SpeedKmh:            s.SpeedKmh,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
