package model

// SweepReport summarizes one expiry sweep pass. Processed counts holds
// actually released; Errors counts items that failed independently of
// the rest of the batch.
type SweepReport struct {
	Processed int
	Errors    int
}
