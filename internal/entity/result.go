package entity

import "fmt"

// BatchResult accumulates statistics for one batch run. It is owned by the
// batch runner and exposed read-only when the run ends.
type BatchResult struct {
	// SuccessCount number of token operations that succeeded.
	SuccessCount int
	// ProcessedAccountCount number of accounts with at least one success.
	ProcessedAccountCount int
	// TotalAccountCount number of accounts attempted.
	TotalAccountCount int
}

// String returns the string representation.
func (r BatchResult) String() string {
	return fmt.Sprintf("%d operations from %d out of %d accounts", r.SuccessCount, r.ProcessedAccountCount, r.TotalAccountCount)
}
