package printjob

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned when the referenced job does not exist.
var ErrJobNotFound = errors.New("print job not found")

// AlreadyFinalizedError is returned when a lifecycle transition is attempted
// on a job that already reached a terminal status. The second finalizer in a
// race observes this error instead of re-applying side effects.
type AlreadyFinalizedError struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("job %s is already %s", e.JobID, e.Status)
}

// ActiveJobDeletionError is returned when a caller without the force flag
// tries to delete a job that is still in progress.
type ActiveJobDeletionError struct {
	JobID string `json:"jobId"`
}

func (e *ActiveJobDeletionError) Error() string {
	return fmt.Sprintf("job %s is in progress; deleting it requires force-delete permission", e.JobID)
}
