//go:build js

package pipeline

import "fmt"

var errParquetUnsupported = fmt.Errorf("parquet output is not available in this build; use format=csv")

func writeKinematicsParquet(string, []KinematicSample) error {
	return errParquetUnsupported
}

func marshalKinematicsParquet([]KinematicSample) ([]byte, error) {
	return nil, errParquetUnsupported
}
