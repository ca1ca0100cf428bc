package dto

import (
	"time"

	"delivery-analytics-service/internal/domain"
)

// View wraps every dashboard response so the client can show load failures
// next to whatever (possibly empty) content the view produced.
type View[T any] struct {
	DatasetError string `json:"dataset_error,omitempty"`
	Rows         int    `json:"rows"`
	Data         T      `json:"data"`
}

func NewView[T any](ds *domain.Dataset, rows int, data T) View[T] {
	return View[T]{DatasetError: ds.Err, Rows: rows, Data: data}
}

type DatasetStatus struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped_rows"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
}

func NewDatasetStatus(ds *domain.Dataset) DatasetStatus {
	return DatasetStatus{
		Source:   ds.Source,
		Rows:     ds.Len(),
		Skipped:  ds.Skipped,
		LoadedAt: ds.LoadedAt,
		Error:    ds.Err,
	}
}
