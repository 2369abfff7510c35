package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

type JobInfo struct {
	Status     api.JobStatus
	HasStatus  bool
	Done       float64
	Total      float64
	LastUpdate time.Time
}

// Fraction returns the reported progress between 0 and 1, or 0 when none was reported.
func (info *JobInfo) Fraction() float64 {
	if info.Total <= 0 {
		return 0
	}
	return info.Done / info.Total
}

var statesToIncludeInSummary = []api.JobStatus{
	api.QueuedForMeshing,
	api.WaitingForMesh,
	api.QueuedForSolving,
	api.Solving,
	api.QueuedForPostProcess,
	api.PostProcess,
	api.Complete,
	api.Quarantined,
}

// WatchContext keeps track of the latest known state of each job in a batch while progress
// payloads arrive. It is safe for use from several delivery goroutines.
type WatchContext struct {
	mutex        sync.Mutex
	now          func() time.Time
	state        map[string]*JobInfo
	stateSummary map[api.JobStatus]int
}

func NewWatchContext() *WatchContext {
	return &WatchContext{
		now:          time.Now,
		state:        make(map[string]*JobInfo, 10),
		stateSummary: make(map[api.JobStatus]int, 8),
	}
}

func (context *WatchContext) ProcessPayload(jobId string, payload progress.Payload) {
	context.mutex.Lock()
	defer context.mutex.Unlock()

	info, exists := context.state[jobId]
	if !exists {
		info = &JobInfo{}
		context.state[jobId] = info
	}
	info.LastUpdate = context.now()

	if done, total, ok := payload.Progress(); ok {
		info.Done = done
		info.Total = total
	}
	if status, ok := payload.Status(); ok {
		context.updateStateSummary(info, status)
	}
}

func (context *WatchContext) updateStateSummary(info *JobInfo, newJobStatus api.JobStatus) {
	if info.HasStatus && info.Status == newJobStatus {
		return
	}
	if info.HasStatus {
		context.stateSummary[info.Status]--
	}
	info.Status = newJobStatus
	info.HasStatus = true
	context.stateSummary[newJobStatus]++
}

// GetJobInfo returns a copy of the job's state, or nil if nothing was heard from it.
func (context *WatchContext) GetJobInfo(jobId string) *JobInfo {
	context.mutex.Lock()
	defer context.mutex.Unlock()
	info, ok := context.state[jobId]
	if !ok {
		return nil
	}
	copied := *info
	return &copied
}

func (context *WatchContext) GetCurrentStateSummary() string {
	context.mutex.Lock()
	defer context.mutex.Unlock()

	first := true
	var summary strings.Builder
	for _, state := range statesToIncludeInSummary {
		if !first {
			summary.WriteString(", ")
		}
		first = false
		summary.WriteString(fmt.Sprintf("%s: %3d", state, context.stateSummary[state]))
	}
	return summary.String()
}

// Return number of finished jobs:
func (context *WatchContext) GetNumberOfFinishedJobs() int {
	context.mutex.Lock()
	defer context.mutex.Unlock()
	return context.stateSummary[api.Complete] + context.stateSummary[api.Quarantined]
}

func (context *WatchContext) AreJobsFinished(ids []string) bool {
	context.mutex.Lock()
	defer context.mutex.Unlock()
	for _, id := range ids {
		info, ok := context.state[id]
		if !ok || !info.HasStatus || !info.Status.IsTerminal() {
			return false
		}
	}
	return true
}
