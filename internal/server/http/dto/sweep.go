package dto

// SweepResponse summarizes a sweep pass triggered over HTTP.
type SweepResponse struct {
	Processed  int   `json:"processed"`
	Errors     int   `json:"errors"`
	DurationMS int64 `json:"duration_ms"`
}
