package monitoring

import "math"

// Run status values derived from the success rate.
const (
	StatusSuccess        = "SUCCESS"
	StatusPartialSuccess = "PARTIAL_SUCCESS"
	StatusFailed         = "FAILED"
)

// Result summarizes one retrieval run. It is constructed once when all tasks
// have settled and is immutable afterwards.
type Result struct {
	RunID                string  `json:"run_id"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	OutputPath           string  `json:"output_path"`
	TotalProcessed       int     `json:"total_processed"`
	TotalSuccessful      int     `json:"total_successful"`
	TotalFailed          int     `json:"total_failed"`
	SuccessRate          float64 `json:"success_rate"`
	FailureRate          float64 `json:"failure_rate"`
	RowsWritten          int     `json:"rows_written"`
	Status               string  `json:"status"`
}

// finalize computes the rates and status from the counters. Rates are 0 when
// nothing was processed.
func (r *Result) finalize() {
	if r.TotalProcessed > 0 {
		r.SuccessRate = round2(float64(r.TotalSuccessful) / float64(r.TotalProcessed) * 100)
		r.FailureRate = round2(float64(r.TotalFailed) / float64(r.TotalProcessed) * 100)
	}
	switch {
	case r.TotalProcessed > 0 && r.TotalSuccessful == r.TotalProcessed:
		r.Status = StatusSuccess
	case r.TotalSuccessful == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartialSuccess
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
