package client

import (
	"fmt"
	"net/http"
)

// ErrCollaborator is returned when a call to the compute service fails, either in transport or
// with a non-success status. Calls are never retried.
type ErrCollaborator struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (err *ErrCollaborator) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%s failed: %s", err.Operation, err.Err)
	}
	return fmt.Sprintf("%s failed with status %d %s: %s", err.Operation, err.StatusCode, http.StatusText(err.StatusCode), err.Body)
}

func (err *ErrCollaborator) Unwrap() error {
	return err.Err
}

// IsNotFound reports whether the service answered 404.
func (err *ErrCollaborator) IsNotFound() bool {
	return err.StatusCode == http.StatusNotFound
}

// ErrArtifactNotFound is returned when a job has no artifact with the requested id.
type ErrArtifactNotFound struct {
	JobId      string
	ArtifactId string
}

func (err *ErrArtifactNotFound) Error() string {
	return fmt.Sprintf("job %s has no artifact %s", err.JobId, err.ArtifactId)
}

// ErrArtifactNotPromoted is returned while an artifact still points at a file on a worker node.
type ErrArtifactNotPromoted struct {
	JobId      string
	ArtifactId string
	Url        string
}

func (err *ErrArtifactNotPromoted) Error() string {
	return fmt.Sprintf("artifact %s of job %s has not been promoted (%s)", err.ArtifactId, err.JobId, err.Url)
}
