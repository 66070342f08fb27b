package planner

import (
	"encoding/json"
	"fmt"

	"github.com/sharoA/document-analyzer-sub000/internal/analyzer"
	"github.com/sharoA/document-analyzer-sub000/pkg/jsonutil"
)

// Each prompt builder follows the documented context policy: a step reads
// only the subset of planner memory it needs (e.g. Step 4/security reads
// Steps 1 and 2, not Steps 3/5/6/7).

// Schemas are generated once from each step's output struct rather than
// hand-written, so the "required" fields named in the prompt are exactly
// the ones runStep enforces after unmarshaling.
var (
	requirementsSchema = jsonutil.MustStringDefSchemaOf(RequirementsOutput{})
	apiSchema          = jsonutil.MustStringDefSchemaOf(APIOutput{})
	dataFlowSchema     = jsonutil.MustStringDefSchemaOf(DataFlowOutput{})
	frontendSchema     = jsonutil.MustStringDefSchemaOf(FrontendOutput{})
	backendSchema      = jsonutil.MustStringDefSchemaOf(BackendOutput{})
	securitySchema     = jsonutil.MustStringDefSchemaOf(SecurityOutput{})
	mqSchema           = jsonutil.MustStringDefSchemaOf(MQOutput{})
	schedulerSchema    = jsonutil.MustStringDefSchemaOf(SchedulerOutput{})
	databaseSchema     = jsonutil.MustStringDefSchemaOf(DatabaseOutput{})
	llmPlanSchema      = jsonutil.MustStringDefSchemaOf(LLMIntegrationOutput{})
)

// schemaInstruction appends the non-negotiable part of every step prompt:
// return exactly one JSON object matching schema, with every required field
// populated (not omitted, not null).
func schemaInstruction(schema string) string {
	return "\n\nReturn JSON matching this schema exactly. Every \"required\" field must be " +
		"present and non-empty; do not omit or null out a required field.\nSchema: " + schema
}

func requirementsPrompt(input *analyzer.Result) string {
	b, _ := json.Marshal(input)
	return "Decompose the following change analysis into functional/non-functional requirements, " +
		"business entities, user stories, and a complexity assessment. Change analysis:\n" + string(b) +
		schemaInstruction(requirementsSchema)
}

func apiPrompt(req RequirementsOutput) string {
	b, _ := json.Marshal(req)
	return "Given these requirements, design the API surface.\n" + string(b) +
		schemaInstruction(apiSchema)
}

func dataFlowPrompt(req RequirementsOutput) string {
	b, _ := json.Marshal(req)
	return "Given these requirements, design the data flow.\n" + string(b) +
		schemaInstruction(dataFlowSchema)
}

func frontendPrompt(api APIOutput) string {
	b, _ := json.Marshal(api)
	return "Given this API design, describe the frontend architecture.\n" + string(b) +
		schemaInstruction(frontendSchema)
}

func backendPrompt(api APIOutput, dataFlow DataFlowOutput) string {
	b1, _ := json.Marshal(api)
	b2, _ := json.Marshal(dataFlow)
	return fmt.Sprintf("Given this API design and data flow, describe the backend architecture.\nAPI: %s\nData flow: %s%s",
		b1, b2, schemaInstruction(backendSchema))
}

func securityPrompt(req RequirementsOutput, api APIOutput) string {
	b1, _ := json.Marshal(req)
	b2, _ := json.Marshal(api)
	return fmt.Sprintf("Given these requirements and API design, define authentication, authorization, and data protection.\nRequirements: %s\nAPI: %s%s",
		b1, b2, schemaInstruction(securitySchema))
}

func mqPrompt(dataFlow DataFlowOutput) string {
	b, _ := json.Marshal(dataFlow)
	return "Given this data flow, design the message-queue configuration.\n" + string(b) +
		schemaInstruction(mqSchema)
}

func schedulerPrompt(req RequirementsOutput) string {
	b, _ := json.Marshal(req)
	return "Given these requirements, design the scheduler/cron configuration.\n" + string(b) +
		schemaInstruction(schedulerSchema)
}

func databasePrompt(req RequirementsOutput, api APIOutput) string {
	b1, _ := json.Marshal(req)
	b2, _ := json.Marshal(api)
	return fmt.Sprintf("Given these requirements and API design, design the database schema and init SQL.\nRequirements: %s\nAPI: %s%s",
		b1, b2, schemaInstruction(databaseSchema))
}

func llmPlanPrompt(input *analyzer.Result) string {
	b, _ := json.Marshal(input)
	return "Given this change analysis, describe the LLM-integration plan (components, tools, execution flow).\n" + string(b) +
		schemaInstruction(llmPlanSchema)
}
