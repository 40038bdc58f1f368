package storage

import (
	"delhi-house-price/dataset"
	"delhi-house-price/models"
)

// FrameWriter is implemented by sinks for tabular prediction output.
type FrameWriter interface {
	WriteFrame(f *dataset.Frame) error
	Close() error
}

// RunRecorder persists training-run summaries.
type RunRecorder interface {
	RecordRun(run *models.TrainingRun) (int64, error)
	Close() error
}
