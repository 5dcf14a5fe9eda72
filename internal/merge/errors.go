package merge

import "fmt"

// StepError reports which merge step failed and how many records had
// already been rewritten, so a caller can retry safely.
type StepError struct {
	Step            string
	RecordsAffected int64
	Err             error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("merge: step %s failed after %d records affected: %v", e.Step, e.RecordsAffected, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
