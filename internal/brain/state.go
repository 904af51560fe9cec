// Package brain wires the agent pipeline: the state that flows through the
// graph, the node implementations, and the compiled graph itself.
package brain

import (
	"tendercortex.app/cortex/common/id"
	"tendercortex.app/cortex/internal/model"
)

// NoDocumentsMessage is the fixed answer emitted when retrieval finds an
// empty index.
const NoDocumentsMessage = `No hay documentos cargados en el sistema.

Para poder responder tu pregunta, por favor:

1. **Sube uno o más documentos PDF** usando el área de carga en la interfaz
2. Espera a que se procesen los documentos
3. Vuelve a hacer tu pregunta

Una vez que hayas cargado los documentos de licitación, podré analizar y responder preguntas específicas sobre su contenido.`

// AgentState is the single value that flows through the graph. Nodes receive
// it read-only and return a Delta; only Merge mutates a copy.
type AgentState struct {
	TraceID  string
	Question string

	Context         []model.Document
	FilteredContext []model.Document
	Domain          string
	Answer          string
	AuditResult     string
	RevisionCount   int
	NoDocuments     bool

	QuantChart       string
	QuantChartType   string
	QuantInsights    string
	QuantDataQuality string

	// RiskLevel == "" means the sentinel never ran.
	RiskLevel        string
	ComplianceStatus string
	RiskIssues       []string
	GatePassed       bool
}

// Delta is a node's partial update. Nil fields leave the state untouched;
// set fields overwrite, last writer wins.
type Delta struct {
	Context         *[]model.Document
	FilteredContext *[]model.Document
	Domain          *string
	Answer          *string
	AuditResult     *string
	RevisionCount   *int
	NoDocuments     *bool

	QuantChart       *string
	QuantChartType   *string
	QuantInsights    *string
	QuantDataQuality *string

	RiskLevel        *string
	ComplianceStatus *string
	RiskIssues       *[]string
	GatePassed       *bool
}

// Merge folds delta into state field by field.
func Merge(state AgentState, delta Delta) AgentState {
	if delta.Context != nil {
		state.Context = *delta.Context
	}
	if delta.FilteredContext != nil {
		state.FilteredContext = *delta.FilteredContext
	}
	if delta.Domain != nil {
		state.Domain = *delta.Domain
	}
	if delta.Answer != nil {
		state.Answer = *delta.Answer
	}
	if delta.AuditResult != nil {
		state.AuditResult = *delta.AuditResult
	}
	if delta.RevisionCount != nil {
		state.RevisionCount = *delta.RevisionCount
	}
	if delta.NoDocuments != nil {
		state.NoDocuments = *delta.NoDocuments
	}
	if delta.QuantChart != nil {
		state.QuantChart = *delta.QuantChart
	}
	if delta.QuantChartType != nil {
		state.QuantChartType = *delta.QuantChartType
	}
	if delta.QuantInsights != nil {
		state.QuantInsights = *delta.QuantInsights
	}
	if delta.QuantDataQuality != nil {
		state.QuantDataQuality = *delta.QuantDataQuality
	}
	if delta.RiskLevel != nil {
		state.RiskLevel = *delta.RiskLevel
	}
	if delta.ComplianceStatus != nil {
		state.ComplianceStatus = *delta.ComplianceStatus
	}
	if delta.RiskIssues != nil {
		state.RiskIssues = *delta.RiskIssues
	}
	if delta.GatePassed != nil {
		state.GatePassed = *delta.GatePassed
	}
	return state
}

// NewInitialState creates the state for one request with a fresh trace id.
func NewInitialState(question string) AgentState {
	return AgentState{
		TraceID:  id.NewTraceID(),
		Question: question,
	}
}

// Docs returns the documents a generation node should use, preferring the
// grader's filtered subset.
func Docs(state AgentState) []model.Document {
	if len(state.FilteredContext) > 0 {
		return state.FilteredContext
	}
	return state.Context
}

func ptr[T any](v T) *T { return &v }
