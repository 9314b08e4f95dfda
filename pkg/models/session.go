package models

import "time"

// Session is the result of one extraction run. It is built once per run,
// immutable afterwards, and replaced wholesale by the next run.
type Session struct {
	ID                string        `json:"id"`
	CreatedAt         time.Time     `json:"created_at"`
	ImageCount        int           `json:"image_count"`
	Deduped           bool          `json:"deduped,omitempty"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
	Contacts          []ContactInfo `json:"contacts"`
}
