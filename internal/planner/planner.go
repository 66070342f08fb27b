// Package planner implements the AI Architect Planner (C5): a seven-step
// pipeline of sequenced LLM calls that turns the content analyzer's output
// into a structured system-architecture design.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharoA/document-analyzer-sub000/internal/analyzer"
	"github.com/sharoA/document-analyzer-sub000/internal/errs"
	"github.com/sharoA/document-analyzer-sub000/internal/llmclient"
	"github.com/sharoA/document-analyzer-sub000/pkg/jsonutil"
)

// Step names, in pipeline order, used as Memory keys and progress labels.
const (
	StepRequirements = "requirements_decomposition"
	StepAPI          = "api_design"
	StepDataFlow     = "data_flow_design"
	StepFrontend     = "frontend_architecture"
	StepBackend      = "backend_architecture"
	StepSecurity     = "security_design"
	StepMQ           = "mq_configuration"
	StepScheduler    = "scheduler_design"
	StepDatabase     = "database_design"
	StepLLMPlan      = "llm_integration_plan"
	StepAssembly     = "assembly"
)

// Step progress milestones, reached after the step completes.
var stepProgress = map[string]int{
	StepRequirements: 10,
	StepAPI:          25,
	StepDataFlow:     25,
	StepFrontend:     40,
	StepBackend:      40,
	StepSecurity:     55,
	StepMQ:           70,
	StepScheduler:    70,
	StepDatabase:     85,
	StepLLMPlan:      95,
	StepAssembly:     100,
}

// RequirementsOutput is Step 1's produced shape.
type RequirementsOutput struct {
	FunctionalRequirements    []string `json:"functional_requirements" jsonschema:"required"`
	NonFunctionalRequirements []string `json:"non_functional_requirements" jsonschema:"required"`
	BusinessEntities          []string `json:"business_entities" jsonschema:"required"`
	UserStories               []string `json:"user_stories" jsonschema:"required"`
	ComplexityAssessment      string   `json:"complexity_assessment" jsonschema:"required"`
}

// APIOutput is Step 2's API-design half.
type APIOutput struct {
	APISpecification string   `json:"api_specification" jsonschema:"required"`
	Interfaces       []string `json:"interfaces" jsonschema:"required"`
	DataModels       []string `json:"data_models" jsonschema:"required"`
}

// DataFlowOutput is Step 2's data-flow half.
type DataFlowOutput struct {
	DataFlowDiagram     string   `json:"data_flow_diagram" jsonschema:"required"`
	Components          []string `json:"components" jsonschema:"required"`
	InteractionPatterns []string `json:"interaction_patterns" jsonschema:"required"`
	PerformanceTargets  string   `json:"performance_targets" jsonschema:"required"`
}

// FrontendOutput is Step 3's frontend half.
type FrontendOutput struct {
	FrontendArchitecture string `json:"frontend_architecture" jsonschema:"required"`
}

// BackendOutput is Step 3's backend half.
type BackendOutput struct {
	BackendArchitecture string `json:"backend_architecture" jsonschema:"required"`
}

// SecurityOutput is Step 4's output.
type SecurityOutput struct {
	Authentication string `json:"authentication" jsonschema:"required"`
	Authorization  string `json:"authorization" jsonschema:"required"`
	DataProtection string `json:"data_protection" jsonschema:"required"`
}

// MQOutput is Step 5's MQ half.
type MQOutput struct {
	MQConfiguration string `json:"mq_configuration" jsonschema:"required"`
}

// SchedulerOutput is Step 5's scheduler half.
type SchedulerOutput struct {
	SchedulerDesign string `json:"scheduler_design" jsonschema:"required"`
}

// DatabaseOutput is Step 6's output.
type DatabaseOutput struct {
	DatabaseSchema string `json:"database_schema" jsonschema:"required"`
	InitSQL        string `json:"init_sql" jsonschema:"required"`
}

// LLMIntegrationOutput is Step 7's output.
type LLMIntegrationOutput struct {
	Components    []string `json:"components" jsonschema:"required"`
	Tools         []string `json:"tools" jsonschema:"required"`
	ExecutionFlow string   `json:"execution_flow" jsonschema:"required"`
}

// ArchitectureDesign is the final assembled composite.
type ArchitectureDesign struct {
	BusinessAnalysis      RequirementsOutput   `json:"business_analysis"`
	APIDesign             APIOutput            `json:"api_design"`
	SystemArchitecture    struct {
		DataFlow DataFlowOutput `json:"data_flow"`
		Frontend FrontendOutput `json:"frontend"`
		Backend  BackendOutput  `json:"backend"`
	} `json:"system_architecture"`
	SecurityDesign        SecurityOutput       `json:"security_design"`
	InfrastructureDesign  struct {
		MQ        MQOutput        `json:"mq"`
		Scheduler SchedulerOutput `json:"scheduler"`
		Database  DatabaseOutput  `json:"database"`
	} `json:"infrastructure_design"`
	ImplementationPlan    LLMIntegrationOutput `json:"implementation_plan"`
	LangchainIntegration  LLMIntegrationOutput `json:"langchain_integration"`
	Metadata              DesignMetadata       `json:"metadata"`
}

// DesignMetadata carries bookkeeping about how the design was produced.
type DesignMetadata struct {
	AnalysisMethod    string   `json:"analysis_method"`
	Framework         string   `json:"framework"`
	TechStack         []string `json:"tech_stack"`
	Compliance        []string `json:"compliance"`
	DesignPrinciples  []string `json:"design_principles"`
}

// Memory is the per-task planner record: accumulated step outputs, a
// frozen snapshot of the C4 input, and per-step timestamps. It is never
// shared across tasks; within a task the parallel sub-steps record into it
// concurrently, so record is guarded by mu.
type Memory struct {
	ContentAnalysis *analyzer.Result
	Outputs         map[string]any
	Timestamps      map[string]time.Time

	mu sync.Mutex
}

func newMemory(input *analyzer.Result) *Memory {
	return &Memory{
		ContentAnalysis: input,
		Outputs:         make(map[string]any),
		Timestamps:      make(map[string]time.Time),
	}
}

func (m *Memory) record(step string, output any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outputs[step] = output
	m.Timestamps[step] = time.Now().UTC()
}

// ProgressFunc reports the step-based progress milestones in the table at
// spec §4.5.
type ProgressFunc func(percent int)

// Planner runs the seven-step architecture synthesis pipeline.
type Planner struct {
	llm   llmclient.Client
	retry llmclient.RetryPolicy
}

// New builds a Planner.
func New(llm llmclient.Client) *Planner {
	return &Planner{llm: llm, retry: llmclient.DefaultRetryPolicy()}
}

// Plan runs all seven steps plus assembly. A step failure aborts the stage
// immediately; prior steps' outputs remain in mem for debugging, and the
// assembly step is skipped.
func (p *Planner) Plan(ctx context.Context, input *analyzer.Result, progress ProgressFunc) (*ArchitectureDesign, *Memory, error) {
	mem := newMemory(input)
	report := func(step string) {
		if progress != nil {
			progress(stepProgress[step])
		}
	}

	var requirements RequirementsOutput
	if err := p.runStep(ctx, mem, StepRequirements, requirementsPrompt(input), &requirements); err != nil {
		return nil, mem, err
	}
	report(StepRequirements)

	var apiOut APIOutput
	var dataFlowOut DataFlowOutput
	if err := p.runParallel(ctx,
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepAPI, apiPrompt(requirements), &apiOut)
		},
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepDataFlow, dataFlowPrompt(requirements), &dataFlowOut)
		},
	); err != nil {
		return nil, mem, err
	}
	report(StepAPI)

	var frontendOut FrontendOutput
	var backendOut BackendOutput
	if err := p.runParallel(ctx,
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepFrontend, frontendPrompt(apiOut), &frontendOut)
		},
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepBackend, backendPrompt(apiOut, dataFlowOut), &backendOut)
		},
	); err != nil {
		return nil, mem, err
	}
	report(StepFrontend)

	var securityOut SecurityOutput
	if err := p.runStep(ctx, mem, StepSecurity, securityPrompt(requirements, apiOut), &securityOut); err != nil {
		return nil, mem, err
	}
	report(StepSecurity)

	var mqOut MQOutput
	var schedulerOut SchedulerOutput
	if err := p.runParallel(ctx,
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepMQ, mqPrompt(dataFlowOut), &mqOut)
		},
		func(ctx context.Context) error {
			return p.runStep(ctx, mem, StepScheduler, schedulerPrompt(requirements), &schedulerOut)
		},
	); err != nil {
		return nil, mem, err
	}
	report(StepMQ)

	var dbOut DatabaseOutput
	if err := p.runStep(ctx, mem, StepDatabase, databasePrompt(requirements, apiOut), &dbOut); err != nil {
		return nil, mem, err
	}
	report(StepDatabase)

	var llmPlanOut LLMIntegrationOutput
	if err := p.runStep(ctx, mem, StepLLMPlan, llmPlanPrompt(input), &llmPlanOut); err != nil {
		return nil, mem, err
	}
	report(StepLLMPlan)

	design := assemble(requirements, apiOut, dataFlowOut, frontendOut, backendOut, securityOut, mqOut, schedulerOut, dbOut, llmPlanOut)
	mem.record(StepAssembly, design)
	report(StepAssembly)

	return design, mem, nil
}

// runParallel runs two step closures concurrently, failing fast on the
// first error (matching the spec's "parallel sub-steps, no ordering
// guarantee among themselves" model).
func (p *Planner) runParallel(ctx context.Context, a, b func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a(gctx) })
	g.Go(func() error { return b(gctx) })
	return g.Wait()
}

// runStep issues the LLM call for one step, validates the JSON shape, and
// retries once with the validation error appended on schema failure,
// before surfacing a step failure per the spec's LLM call contract.
func (p *Planner) runStep(ctx context.Context, mem *Memory, step, userPrompt string, out any) error {
	systemPrompt := "You are a software architecture design assistant. Respond with JSON only, matching the requested shape."
	maxTokens := llmclient.EstimateMaxTokens(systemPrompt, userPrompt, 2048)

	text, err := llmclient.CallWithRetry(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.llm.Call(ctx, systemPrompt, userPrompt, maxTokens, 90*time.Second)
	})
	if err != nil {
		return err
	}

	if unmarshalErr := jsonutil.UnmarshalExtractedStrict(text, out); unmarshalErr != nil {
		// One re-prompt carrying the validation error verbatim.
		retryPrompt := userPrompt + fmt.Sprintf("\n\nYour previous response was invalid: %v\nReturn corrected JSON only.", unmarshalErr)
		text2, err2 := p.llm.Call(ctx, systemPrompt, retryPrompt, llmclient.EstimateMaxTokens(systemPrompt, retryPrompt, 2048), 90*time.Second)
		if err2 != nil {
			return errs.LLMSchema(step, unmarshalErr)
		}
		if unmarshalErr2 := jsonutil.UnmarshalExtractedStrict(text2, out); unmarshalErr2 != nil {
			return errs.LLMSchema(step, unmarshalErr2)
		}
	}

	mem.record(step, out)
	return nil
}

func assemble(
	requirements RequirementsOutput,
	apiOut APIOutput,
	dataFlowOut DataFlowOutput,
	frontendOut FrontendOutput,
	backendOut BackendOutput,
	securityOut SecurityOutput,
	mqOut MQOutput,
	schedulerOut SchedulerOutput,
	dbOut DatabaseOutput,
	llmPlanOut LLMIntegrationOutput,
) *ArchitectureDesign {
	design := &ArchitectureDesign{
		BusinessAnalysis:     requirements,
		APIDesign:            apiOut,
		SecurityDesign:       securityOut,
		ImplementationPlan:   llmPlanOut,
		LangchainIntegration: llmPlanOut,
		Metadata: DesignMetadata{
			AnalysisMethod:   "seven-step-llm-synthesis",
			Framework:        "document-analyzer",
			TechStack:        []string{"go"},
			Compliance:       []string{},
			DesignPrinciples: []string{"separation-of-concerns", "fail-fast"},
		},
	}
	design.SystemArchitecture.DataFlow = dataFlowOut
	design.SystemArchitecture.Frontend = frontendOut
	design.SystemArchitecture.Backend = backendOut
	design.InfrastructureDesign.MQ = mqOut
	design.InfrastructureDesign.Scheduler = schedulerOut
	design.InfrastructureDesign.Database = dbOut
	return design
}
