package retry

import "fmt"

// BatchFailure reports that a request could not be completed.
// Exhausted is true when the attempt budget was spent.
type BatchFailure struct {
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *BatchFailure) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("batch failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("batch failed on attempt %d: %v", e.Attempts, e.Err)
}

func (e *BatchFailure) Unwrap() error {
	return e.Err
}
