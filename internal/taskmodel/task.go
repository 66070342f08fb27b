// Package taskmodel defines the root Task and StageState entities that the
// registry, orchestrator, and binder operate over, along with the
// invariants that every mutation must preserve (see design note I1-I6).
package taskmodel

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionMode selects whether the orchestrator chains stages
// automatically or waits for an explicit start_stage request per stage.
type ExecutionMode string

const (
	ModeAutomatic ExecutionMode = "automatic"
	ModeManual    ExecutionMode = "manual"
)

// Status is the lifecycle state shared by a Task and by each StageState.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s is a terminal status (completed or failed).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageName identifies one of the three ordered pipeline stages.
type StageName string

const (
	StageDocumentParsing StageName = "document_parsing"
	StageContentAnalysis StageName = "content_analysis"
	StageAIAnalysis      StageName = "ai_analysis"
	StageNone            StageName = "none"
)

// Stages lists the three pipeline stages in their fixed execution order.
var Stages = []StageName{StageDocumentParsing, StageContentAnalysis, StageAIAnalysis}

// StageWeights implements the fixed-weight overall-progress formula from
// the progress hub design: document_parsing 25%, content_analysis 35%,
// ai_analysis 40%.
var StageWeights = map[StageName]float64{
	StageDocumentParsing: 0.25,
	StageContentAnalysis: 0.35,
	StageAIAnalysis:      0.40,
}

// IndexOf returns the position of name within Stages, or -1 if name is not
// one of the three ordered stages.
func IndexOf(name StageName) int {
	for i, s := range Stages {
		if s == name {
			return i
		}
	}
	return -1
}

// Task is the root entity: one end-to-end analysis of one uploaded
// document.
type Task struct {
	TaskID         string        `json:"task_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ExecutionMode  ExecutionMode `json:"execution_mode"`
	FileName       string        `json:"file_name"`
	FileSize       int64         `json:"file_size"`
	FileType       string        `json:"file_type"`
	StoragePath    string        `json:"storage_path"`
	OverallStatus  Status        `json:"overall_status"`
	OverallProgress int          `json:"overall_progress"`
	CurrentStage   StageName     `json:"current_stage"`
}

// NewTask creates a pending task in the given execution mode, with a fresh
// opaque task_id.
func NewTask(fileName string, fileSize int64, fileType, storagePath string, mode ExecutionMode) *Task {
	now := time.Now().UTC()
	return &Task{
		TaskID:          uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
		ExecutionMode:   mode,
		FileName:        fileName,
		FileSize:        fileSize,
		FileType:        fileType,
		StoragePath:     storagePath,
		OverallStatus:   StatusPending,
		OverallProgress: 0,
		CurrentStage:    StageDocumentParsing,
	}
}

// StageState is the per-task, per-stage progress record (one per stage per
// task; stages form the ordered triple document_parsing -> content_analysis
// -> ai_analysis).
type StageState struct {
	StageName  StageName  `json:"stage_name"`
	Status     Status     `json:"status"`
	Progress   int        `json:"progress"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      *StageError `json:"error,omitempty"`
}

// StageError is the persisted, JSON-serializable mirror of an errs.Error.
type StageError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewStageStates returns the three pending stage states for a fresh task.
func NewStageStates() map[StageName]*StageState {
	states := make(map[StageName]*StageState, len(Stages))
	for _, name := range Stages {
		states[name] = &StageState{StageName: name, Status: StatusPending, Progress: 0}
	}
	return states
}

// CurrentStage implements invariant I2: current_stage is the earliest stage
// whose status is not completed, or StageNone if all stages are completed.
func CurrentStage(states map[StageName]*StageState) StageName {
	for _, name := range Stages {
		st, ok := states[name]
		if !ok || st.Status != StatusCompleted {
			return name
		}
	}
	return StageNone
}

// OverallProgress implements the progress hub's fixed-weight sum over
// stage progresses (I1: monotone non-decreasing until terminal, then
// frozen, is enforced by callers never lowering a stored value).
func OverallProgress(states map[StageName]*StageState) int {
	var sum float64
	for _, name := range Stages {
		st, ok := states[name]
		if !ok {
			continue
		}
		sum += StageWeights[name] * float64(st.Progress)
	}
	if sum > 100 {
		sum = 100
	}
	return int(sum)
}

// CanStart implements invariant I3: stage N may transition to running only
// if stage N-1 is completed (or N is the first stage).
func CanStart(states map[StageName]*StageState, name StageName) bool {
	idx := IndexOf(name)
	if idx <= 0 {
		return idx == 0
	}
	prev, ok := states[Stages[idx-1]]
	return ok && prev.Status == StatusCompleted
}
