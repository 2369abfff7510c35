package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// JobStatus is the numeric status code the compute service stores for a job.
type JobStatus int

const (
	New                  JobStatus = 0
	QueuedForMeshing     JobStatus = 10
	WaitingForMesh       JobStatus = 20
	QueuedForSolving     JobStatus = 30
	Solving              JobStatus = 40
	QueuedForPostProcess JobStatus = 50
	PostProcess          JobStatus = 60
	Complete             JobStatus = 70
	Quarantined          JobStatus = 80
)

var statusNames = map[JobStatus]string{
	New:                  "New",
	QueuedForMeshing:     "QueuedForMeshing",
	WaitingForMesh:       "WaitingForMesh",
	QueuedForSolving:     "QueuedForSolving",
	Solving:              "Solving",
	QueuedForPostProcess: "QueuedForPostProcess",
	PostProcess:          "PostProcess",
	Complete:             "Complete",
	Quarantined:          "Quarantined",
}

// States where the job is finished.
var terminalStatuses = map[JobStatus]bool{
	Complete:    true,
	Quarantined: true,
}

func (s JobStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobStatus(%d)", int(s))
}

func (s JobStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s JobStatus) IsKnown() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseJobStatus looks a status up by name, ignoring case.
func ParseJobStatus(name string) (JobStatus, error) {
	for status, statusName := range statusNames {
		if strings.EqualFold(statusName, strings.TrimSpace(name)) {
			return status, nil
		}
	}
	return 0, errors.Errorf("unknown job status %q", name)
}

// JobStatusFromValue interprets a decoded JSON value (a number or a status name) as a status.
func JobStatusFromValue(v interface{}) (JobStatus, error) {
	switch value := v.(type) {
	case float64:
		if math.IsNaN(value) || value < math.MinInt32 || value > math.MaxInt32 {
			return 0, errors.Errorf("job status %v is out of range", value)
		}
		if value != math.Trunc(value) {
			return 0, errors.Errorf("job status %v is not an integer", value)
		}
		return JobStatus(int(value)), nil
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, errors.Errorf("job status %d is out of range", n)
		}
		return JobStatus(n), nil
	case int:
		return JobStatus(value), nil
	case string:
		return ParseJobStatus(value)
	default:
		return 0, errors.Errorf("cannot interpret %v (%T) as a job status", v, v)
	}
}
