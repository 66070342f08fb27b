// Package orchestrator implements the Stage Orchestrator (C6): it drives
// the document parser, content analyzer, and AI architect planner for one
// task, enforcing the ordered-stage invariant (I3), forwarding progress
// into the registry's progress hub (C7), persisting each stage's
// StageResult before marking it completed (I5), and categorizing failures
// per the pipeline's exception contract.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sharoA/document-analyzer-sub000/internal/analyzer"
	"github.com/sharoA/document-analyzer-sub000/internal/errs"
	"github.com/sharoA/document-analyzer-sub000/internal/parser"
	"github.com/sharoA/document-analyzer-sub000/internal/planner"
	"github.com/sharoA/document-analyzer-sub000/internal/registry"
	"github.com/sharoA/document-analyzer-sub000/internal/taskmodel"
)

// Timeouts bounds the wall-clock budget for each stage. Exceeding a budget
// categorizes as stage_timeout once the stage's own retries are exhausted.
type Timeouts struct {
	DocumentParsing time.Duration
	ContentAnalysis time.Duration
	AIAnalysis      time.Duration
}

// DefaultTimeouts matches the stage budgets in the orchestrator design:
// document_parsing 120s, content_analysis 600s, ai_analysis 900s.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		DocumentParsing: 120 * time.Second,
		ContentAnalysis: 600 * time.Second,
		AIAnalysis:      900 * time.Second,
	}
}

// AssembledResult is the final, cross-stage result persisted by Complete
// and returned to a client polling the completed task.
type AssembledResult struct {
	DocumentParsing *parser.Result             `json:"document_parsing"`
	ContentAnalysis *analyzer.Result           `json:"content_analysis"`
	Design          *planner.ArchitectureDesign `json:"design"`
}

// Orchestrator drives one task's three stages against a shared registry.
type Orchestrator struct {
	hub      *registry.Hub
	parser   *parser.Parser
	analyzer *analyzer.Analyzer
	planner  *planner.Planner
	timeouts Timeouts
}

// New builds an Orchestrator wired to the given stage components and hub.
func New(hub *registry.Hub, p *parser.Parser, a *analyzer.Analyzer, pl *planner.Planner) *Orchestrator {
	return &Orchestrator{hub: hub, parser: p, analyzer: a, planner: pl, timeouts: DefaultTimeouts()}
}

// WithTimeouts overrides the default per-stage budgets.
func (o *Orchestrator) WithTimeouts(t Timeouts) *Orchestrator {
	o.timeouts = t
	return o
}

// RunAll drives all three stages to completion in order (automatic mode),
// stopping at the first stage failure. A stage's failure marks the task
// failed and halts the chain; it never starts the next stage. RunStage
// itself assembles the final result once the last stage completes, so
// manual mode reaches the same terminal outcome one stage at a time.
func (o *Orchestrator) RunAll(ctx context.Context, taskID string) error {
	for _, stage := range taskmodel.Stages {
		if err := o.RunStage(ctx, taskID, stage); err != nil {
			return err
		}
	}
	return nil
}

// RunStage runs exactly one stage (manual mode, also used internally by
// RunAll). It rejects the call if I3 is violated: stage N may only start
// once stage N-1 is completed. Re-running a stage already completed is
// likewise rejected (R1), leaving state unchanged. When the stage just run
// is the last in the pipeline, it assembles the final result and completes
// the task, so automatic and manual mode converge on the same outcome.
func (o *Orchestrator) RunStage(ctx context.Context, taskID string, stage taskmodel.StageName) error {
	task, err := o.hub.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.OverallStatus == taskmodel.StatusFailed {
		return errs.Validation(string(stage), fmt.Errorf("task %s has already failed", taskID))
	}
	states, err := o.hub.States(ctx, taskID)
	if err != nil {
		return err
	}
	if st, ok := states[stage]; ok && st.Status == taskmodel.StatusCompleted {
		return errs.Validation(string(stage), fmt.Errorf("stage %s already completed", stage))
	}
	if !taskmodel.CanStart(states, stage) {
		return errs.Validation(string(stage), fmt.Errorf("stage %s cannot start before its predecessor completes", stage))
	}

	if err := o.hub.UpdateStage(ctx, taskID, stage, 1, taskmodel.StatusRunning, "starting "+string(stage)); err != nil {
		return err
	}

	budget, cancel := context.WithTimeout(ctx, o.budgetFor(stage))
	defer cancel()

	runErr := o.runOne(budget, task, stage)
	if runErr != nil {
		cause := categorize(stage, budget, runErr)
		lastProgress := 0
		if latest, statesErr := o.hub.States(ctx, taskID); statesErr == nil {
			if st, ok := latest[stage]; ok {
				lastProgress = st.Progress
			}
		}
		_ = o.hub.UpdateStage(ctx, taskID, stage, lastProgress, taskmodel.StatusFailed, cause.Error())
		_ = o.hub.Fail(ctx, taskID, cause)
		return cause
	}

	if stage == taskmodel.Stages[len(taskmodel.Stages)-1] {
		return o.finishTask(ctx, taskID)
	}
	return nil
}

// budgetFor returns the configured per-stage timeout.
func (o *Orchestrator) budgetFor(stage taskmodel.StageName) time.Duration {
	switch stage {
	case taskmodel.StageDocumentParsing:
		return o.timeouts.DocumentParsing
	case taskmodel.StageContentAnalysis:
		return o.timeouts.ContentAnalysis
	default:
		return o.timeouts.AIAnalysis
	}
}

// runOne dispatches to the stage-specific driver, each of which forwards
// its own progress callback into the hub and saves its StageResult before
// the caller marks the stage completed (I5).
func (o *Orchestrator) runOne(ctx context.Context, task *taskmodel.Task, stage taskmodel.StageName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch stage {
	case taskmodel.StageDocumentParsing:
		return o.runDocumentParsing(ctx, task)
	case taskmodel.StageContentAnalysis:
		return o.runContentAnalysis(ctx, task)
	case taskmodel.StageAIAnalysis:
		return o.runAIAnalysis(ctx, task)
	default:
		return errs.Internal(string(stage), fmt.Errorf("unknown stage %s", stage))
	}
}

func (o *Orchestrator) runDocumentParsing(ctx context.Context, task *taskmodel.Task) error {
	stage := taskmodel.StageDocumentParsing
	progress := func(pct int) {
		_ = o.hub.UpdateStage(ctx, task.TaskID, stage, pct, taskmodel.StatusRunning, "parsing document")
	}
	result, err := o.parser.Parse(ctx, task.StoragePath, task.FileName, task.FileSize, progress)
	if err != nil {
		return err
	}
	if err := o.hub.SaveStageResult(ctx, task.TaskID, stage, result); err != nil {
		return err
	}
	return o.hub.UpdateStage(ctx, task.TaskID, stage, 100, taskmodel.StatusCompleted, "document parsed")
}

func (o *Orchestrator) runContentAnalysis(ctx context.Context, task *taskmodel.Task) error {
	stage := taskmodel.StageContentAnalysis
	var parseResult parser.Result
	if err := o.hub.StageResult(ctx, task.TaskID, taskmodel.StageDocumentParsing, &parseResult); err != nil {
		return err
	}
	progress := func(chunksDone, totalChunks int) {
		pct := 0
		if totalChunks > 0 {
			pct = chunksDone * 100 / totalChunks
		}
		_ = o.hub.UpdateStage(ctx, task.TaskID, stage, pct, taskmodel.StatusRunning, "analyzing content")
	}
	result, err := o.analyzer.Analyze(ctx, &parseResult, progress)
	if err != nil {
		return err
	}
	if err := o.hub.SaveStageResult(ctx, task.TaskID, stage, result); err != nil {
		return err
	}
	return o.hub.UpdateStage(ctx, task.TaskID, stage, 100, taskmodel.StatusCompleted, "content analyzed")
}

func (o *Orchestrator) runAIAnalysis(ctx context.Context, task *taskmodel.Task) error {
	stage := taskmodel.StageAIAnalysis
	var changeResult analyzer.Result
	if err := o.hub.StageResult(ctx, task.TaskID, taskmodel.StageContentAnalysis, &changeResult); err != nil {
		return err
	}
	progress := func(pct int) {
		_ = o.hub.UpdateStage(ctx, task.TaskID, stage, pct, taskmodel.StatusRunning, "designing architecture")
	}
	design, _, err := o.planner.Plan(ctx, &changeResult, progress)
	if err != nil {
		return err
	}
	if err := o.hub.SaveStageResult(ctx, task.TaskID, stage, design); err != nil {
		return err
	}
	return o.hub.UpdateStage(ctx, task.TaskID, stage, 100, taskmodel.StatusCompleted, "architecture designed")
}

// finishTask assembles the three StageResults into the task's final
// result and emits the exactly-one analysis_completed terminal event.
func (o *Orchestrator) finishTask(ctx context.Context, taskID string) error {
	var parseResult parser.Result
	if err := o.hub.StageResult(ctx, taskID, taskmodel.StageDocumentParsing, &parseResult); err != nil {
		return err
	}
	var changeResult analyzer.Result
	if err := o.hub.StageResult(ctx, taskID, taskmodel.StageContentAnalysis, &changeResult); err != nil {
		return err
	}
	var design planner.ArchitectureDesign
	if err := o.hub.StageResult(ctx, taskID, taskmodel.StageAIAnalysis, &design); err != nil {
		return err
	}
	assembled := AssembledResult{DocumentParsing: &parseResult, ContentAnalysis: &changeResult, Design: &design}
	return o.hub.Complete(ctx, taskID, assembled)
}

// Cancel marks a task failed with reason cancelled and emits its terminal
// event. It does not interrupt a stage that is already running: that
// stage's driver still saves its StageResult and updates its progress when
// it returns. RunStage refuses to start any stage of a task whose overall
// status is failed, so RunAll stops before the next stage.
func (o *Orchestrator) Cancel(ctx context.Context, taskID string) error {
	return o.hub.Fail(ctx, taskID, errs.Cancelled("orchestrator"))
}

// categorize maps a stage failure to its terminal error kind: a budget
// deadline becomes stage_timeout, an already-categorized pipeline error
// passes through unchanged, and anything else becomes internal_error.
func categorize(stage taskmodel.StageName, budget context.Context, err error) *errs.Error {
	if budget.Err() == context.DeadlineExceeded {
		return errs.StageTimeout(string(stage), err)
	}
	var e *errs.Error
	if asErr, ok := err.(*errs.Error); ok {
		e = asErr
	}
	if e != nil {
		return e
	}
	return errs.Internal(string(stage), err)
}
