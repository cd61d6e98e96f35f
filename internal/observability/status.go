package observability

import (
	"sort"
	"sync"
	"time"
)

type Role string

const (
	RoleIdle    Role = "IDLE"
	RoleRunning Role = "RUNNING"
)

// RunStatus is the progress of one in-flight run.
type RunStatus struct {
	RunID      string    `json:"run_id"`
	Task       string    `json:"task"`
	Stage      string    `json:"stage"`
	Started    time.Time `json:"started"`
	LastChange time.Time `json:"last_change"`
}

// SystemStatus tracks every in-flight run by run ID, so concurrent runs
// never overwrite each other's stage.
type SystemStatus struct {
	mu         sync.RWMutex
	active     map[string]*RunStatus
	lastChange time.Time
	completed  int
	failed     int
}

var globalStatus = NewSystemStatus()

func NewSystemStatus() *SystemStatus {
	return &SystemStatus{
		active:     make(map[string]*RunStatus),
		lastChange: time.Now(),
	}
}

// StatusSnapshot is a point-in-time copy of a SystemStatus.
type StatusSnapshot struct {
	Role       Role        `json:"role"`
	Active     []RunStatus `json:"active"`
	LastChange time.Time   `json:"last_change"`
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
}

// Set records the stage run runID is in.
func (s *SystemStatus) Set(runID, task, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	rs, ok := s.active[runID]
	if !ok {
		rs = &RunStatus{RunID: runID, Task: task, Started: now}
		s.active[runID] = rs
	}
	rs.Stage = stage
	rs.LastChange = now
	s.lastChange = now
}

// Finish drops runID from the active set and counts the outcome.
func (s *SystemStatus) Finish(runID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, runID)
	s.lastChange = time.Now()
	if ok {
		s.completed++
	} else {
		s.failed++
	}
}

// Snapshot copies the status; active runs are ordered by start time.
func (s *SystemStatus) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatusSnapshot{
		Role:       RoleIdle,
		Active:     make([]RunStatus, 0, len(s.active)),
		LastChange: s.lastChange,
		Completed:  s.completed,
		Failed:     s.failed,
	}
	for _, rs := range s.active {
		snap.Active = append(snap.Active, *rs)
	}
	sort.Slice(snap.Active, func(i, j int) bool {
		if snap.Active[i].Started.Equal(snap.Active[j].Started) {
			return snap.Active[i].RunID < snap.Active[j].RunID
		}
		return snap.Active[i].Started.Before(snap.Active[j].Started)
	})
	if len(snap.Active) > 0 {
		snap.Role = RoleRunning
	}
	return snap
}

// SetStatus records the document and stage run runID is processing.
func SetStatus(runID, task, stage string) {
	globalStatus.Set(runID, task, stage)
}

// FinishRun removes runID from the active runs and counts the outcome.
func FinishRun(runID string, ok bool) {
	globalStatus.Finish(runID, ok)
}

// GetStatus retrieves a copy of the process-wide status.
func GetStatus() StatusSnapshot {
	return globalStatus.Snapshot()
}
