// Package registry implements the task registry and progress hub
// (component C7): the single place that creates tasks, records stage
// progress against the store, computes the fixed-weight overall
// progress, and fans progress/terminal events out to subscribers.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
	"github.com/sharoA/document-analyzer-sub000/internal/store"
	"github.com/sharoA/document-analyzer-sub000/internal/taskmodel"
	"github.com/sharoA/document-analyzer-sub000/pkg/safe"
)

// dispatchPoolSize bounds how many subscriber callbacks may run
// concurrently across the whole hub, so a publish burst across many
// tasks cannot spawn unbounded goroutines.
const dispatchPoolSize = 16

// Event is the push-event shape described by the progress hub: a flat
// record containing the task's stage, per-stage and overall progress,
// status, a human-readable message and a timestamp. It is the payload
// carried by an sse.Message's Data field once JSON-encoded by
// cmd/analyzer's events handler.
type Event struct {
	TaskID          string    `json:"task_id"`
	Stage           string    `json:"stage"`
	StageProgress   int       `json:"stage_progress"`
	OverallProgress int       `json:"overall_progress"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

// These event kinds distinguish a routine progress update from the exactly
// one terminal event every task eventually emits (P4).
const (
	eventAnalysisCompleted = "analysis_completed"
	eventAnalysisFailed    = "analysis_failed"
	eventProgress          = "progress"
)

// Subscriber receives events for tasks it is interested in. It must not
// block: the hub runs each call on one worker of a bounded pool
// (dispatchPoolSize workers shared by all tasks), so a slow subscriber
// holds that worker and delays the other deliveries queued behind it.
type Subscriber func(Event)

// Hub is the task registry and progress hub. One Hub is shared by the
// whole pipeline; all of its methods are safe for concurrent use.
type Hub struct {
	store store.Store

	mu          sync.RWMutex
	subscribers map[string][]Subscriber // task_id -> fan-out list
	terminal    map[string]bool         // task_id -> terminal event already sent (P4)
	dispatch    *workerpool.WorkerPool
}

func NewHub(s store.Store) *Hub {
	return &Hub{
		store:       s,
		subscribers: make(map[string][]Subscriber),
		terminal:    make(map[string]bool),
		dispatch:    workerpool.New(dispatchPoolSize),
	}
}

// CreateTask persists a new task and its three pending stage states,
// returning the created Task.
func (h *Hub) CreateTask(ctx context.Context, fileName string, fileSize int64, fileType, storagePath string, mode taskmodel.ExecutionMode) (*taskmodel.Task, error) {
	task := taskmodel.NewTask(fileName, fileSize, fileType, storagePath, mode)
	if err := h.store.Put(ctx, store.NamespaceBasicInfo, task.TaskID, "task", task, store.DefaultTTL); err != nil {
		return nil, errs.Internal("registry", fmt.Errorf("create task: %w", err))
	}
	states := taskmodel.NewStageStates()
	if err := h.store.Put(ctx, store.NamespaceProgress, task.TaskID, "states", states, store.DefaultTTL); err != nil {
		return nil, errs.Internal("registry", fmt.Errorf("create task states: %w", err))
	}
	return task, nil
}

// Get returns the task's basic_info record.
func (h *Hub) Get(ctx context.Context, taskID string) (*taskmodel.Task, error) {
	var task taskmodel.Task
	if err := h.store.Get(ctx, store.NamespaceBasicInfo, taskID, "task", &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// States returns the task's current per-stage progress snapshot. This
// is the pull-recovery read path: a client that missed push events can
// call this to catch up in one shot.
func (h *Hub) States(ctx context.Context, taskID string) (map[taskmodel.StageName]*taskmodel.StageState, error) {
	var states map[taskmodel.StageName]*taskmodel.StageState
	if err := h.store.Get(ctx, store.NamespaceProgress, taskID, "states", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// List returns up to limit task IDs in the store's Scan order: most
// recently written first for MemStore, undefined for RedisStore.
func (h *Hub) List(ctx context.Context, limit int) ([]string, error) {
	return h.store.Scan(ctx, store.NamespaceBasicInfo, limit)
}

// Subscribe registers fn to receive every event published for taskID
// until the task's terminal event fires. It returns an unsubscribe
// function.
func (h *Hub) Subscribe(taskID string, fn Subscriber) func() {
	h.mu.Lock()
	h.subscribers[taskID] = append(h.subscribers[taskID], fn)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[taskID]
		for i, s := range subs {
			if fmt.Sprintf("%p", s) == fmt.Sprintf("%p", fn) {
				h.subscribers[taskID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// UpdateStage writes a stage's progress/status, recomputes current
// stage and overall progress (I1, I2), persists the updated states and
// fans out a progress event. A stage transitioning into completed or
// failed is reflected in the emitted status, but the terminal
// analysis_completed/analysis_failed event (P4) is only ever emitted by
// Complete/Fail below.
func (h *Hub) UpdateStage(ctx context.Context, taskID string, name taskmodel.StageName, progress int, status taskmodel.Status, message string) error {
	states, err := h.States(ctx, taskID)
	if err != nil {
		return err
	}
	st, ok := states[name]
	if !ok {
		return errs.Internal("registry", fmt.Errorf("unknown stage %s", name))
	}

	now := time.Now().UTC()
	if status == taskmodel.StatusRunning && st.StartedAt == nil {
		st.StartedAt = &now
	}
	if status.IsTerminal() && st.FinishedAt == nil {
		st.FinishedAt = &now
	}
	st.Status = status
	if progress > st.Progress {
		st.Progress = progress // I1: never move progress backwards
	}

	if err := h.store.Put(ctx, store.NamespaceProgress, taskID, "states", states, store.DefaultTTL); err != nil {
		return errs.Internal("registry", fmt.Errorf("persist states: %w", err))
	}

	overall := taskmodel.OverallProgress(states)
	current := taskmodel.CurrentStage(states)
	h.publish(Event{
		TaskID:          taskID,
		Stage:           string(name),
		StageProgress:   st.Progress,
		OverallProgress: overall,
		Status:          string(status),
		Message:         message,
		Timestamp:       now,
	})

	if err := h.updateTaskSummary(ctx, taskID, overall, current, status); err != nil {
		return err
	}
	return nil
}

func (h *Hub) updateTaskSummary(ctx context.Context, taskID string, overall int, current taskmodel.StageName, lastStageStatus taskmodel.Status) error {
	task, err := h.Get(ctx, taskID)
	if err != nil {
		return err
	}
	task.OverallProgress = overall
	task.CurrentStage = current
	task.UpdatedAt = time.Now().UTC()
	if task.OverallStatus != taskmodel.StatusFailed {
		task.OverallStatus = taskmodel.StatusRunning
		if current == taskmodel.StageNone {
			task.OverallStatus = taskmodel.StatusCompleted
		}
	}
	return h.store.Put(ctx, store.NamespaceBasicInfo, taskID, "task", task, store.DefaultTTL)
}

// SaveStageResult persists a stage's StageResult under its stage-qualified
// namespace. Callers must write this before marking the stage completed
// (I5: result availability implies completion).
func (h *Hub) SaveStageResult(ctx context.Context, taskID string, stage taskmodel.StageName, result any) error {
	ns := store.StageResultNamespace(string(stage))
	if err := h.store.Put(ctx, ns, taskID, "result", result, store.DefaultTTL); err != nil {
		return errs.Internal("registry", fmt.Errorf("persist stage result for %s: %w", stage, err))
	}
	return nil
}

// StageResult reads back a previously-saved stage result into dest.
func (h *Hub) StageResult(ctx context.Context, taskID string, stage taskmodel.StageName, dest any) error {
	ns := store.StageResultNamespace(string(stage))
	return h.store.Get(ctx, ns, taskID, "result", dest)
}

// Complete emits the task's exactly-one analysis_completed terminal
// event and freezes overall progress at 100.
func (h *Hub) Complete(ctx context.Context, taskID string, result any) error {
	if err := h.store.Put(ctx, store.NamespaceResult, taskID, "assembled_result", result, store.DefaultTTL); err != nil {
		return errs.Internal("registry", fmt.Errorf("persist result: %w", err))
	}
	task, err := h.Get(ctx, taskID)
	if err != nil {
		return err
	}
	task.OverallStatus = taskmodel.StatusCompleted
	task.OverallProgress = 100
	task.CurrentStage = taskmodel.StageNone
	task.UpdatedAt = time.Now().UTC()
	if err := h.store.Put(ctx, store.NamespaceBasicInfo, taskID, "task", task, store.DefaultTTL); err != nil {
		return errs.Internal("registry", fmt.Errorf("persist task: %w", err))
	}
	h.emitTerminal(taskID, eventAnalysisCompleted, "analysis complete", 100, "")
	return nil
}

// Fail records cause on the error field of the task's current stage and
// emits the task's exactly-one analysis_failed terminal event.
func (h *Hub) Fail(ctx context.Context, taskID string, cause error) error {
	task, err := h.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if states, statesErr := h.States(ctx, taskID); statesErr == nil {
		if st, ok := states[task.CurrentStage]; ok {
			st.Error = &taskmodel.StageError{Kind: string(errs.KindOf(cause)), Message: cause.Error()}
			_ = h.store.Put(ctx, store.NamespaceProgress, taskID, "states", states, store.DefaultTTL)
		}
	}
	task.OverallStatus = taskmodel.StatusFailed
	task.UpdatedAt = time.Now().UTC()
	if err := h.store.Put(ctx, store.NamespaceBasicInfo, taskID, "task", task, store.DefaultTTL); err != nil {
		return errs.Internal("registry", fmt.Errorf("persist task: %w", err))
	}
	h.emitTerminal(taskID, eventAnalysisFailed, cause.Error(), task.OverallProgress, string(errs.KindOf(cause)))
	return nil
}

func (h *Hub) emitTerminal(taskID, kind, message string, overall int, errKind string) {
	h.mu.Lock()
	if h.terminal[taskID] {
		h.mu.Unlock()
		return // P4: at most one terminal event per task
	}
	h.terminal[taskID] = true
	h.mu.Unlock()

	msg := message
	if errKind != "" {
		msg = fmt.Sprintf("%s (%s)", message, errKind)
	}
	h.publish(Event{
		TaskID:          taskID,
		Stage:           string(taskmodel.StageNone),
		StageProgress:   100,
		OverallProgress: overall,
		Status:          kind,
		Message:         msg,
		Timestamp:       time.Now().UTC(),
	})
}

// publish fans an event out to every current subscriber of its task,
// each dispatched through a bounded pool so a misbehaving subscriber
// cannot wedge the publisher and a publish burst cannot spawn unbounded
// goroutines (fire-and-forget, per the progress hub's event delivery
// contract). Each dispatched call is still panic-safe.
func (h *Hub) publish(evt Event) {
	h.mu.RLock()
	subs := append([]Subscriber(nil), h.subscribers[evt.TaskID]...)
	h.mu.RUnlock()

	for _, sub := range subs {
		sub := sub
		h.dispatch.Submit(safe.WithRecover(func() { sub(evt) }))
	}
}
