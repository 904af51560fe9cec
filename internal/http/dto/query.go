package dto

// QueryRequest is the body of /api/chat and /api/chat/stream.
type QueryRequest struct {
	Question string `json:"question" binding:"required,min=1,max=2000"`
}

// QueryResponse is the terminal pipeline state on the wire.
type QueryResponse struct {
	Answer        string        `json:"answer"`
	Sources       []string      `json:"sources"`
	AgentMetadata AgentMetadata `json:"agent_metadata"`
}

type AgentMetadata struct {
	Domain             string          `json:"domain"`
	SpecialistUsed     string          `json:"specialist_used"`
	DocumentsRetrieved int             `json:"documents_retrieved"`
	DocumentsFiltered  int             `json:"documents_filtered"`
	RevisionCount      int             `json:"revision_count"`
	AuditResult        string          `json:"audit_result"`
	QuantAnalysis      *QuantAnalysis  `json:"quant_analysis"`
	RiskAssessment     *RiskAssessment `json:"risk_assessment"`
}

// QuantAnalysis is present only when the quantitative branch produced a chart
// or insights.
type QuantAnalysis struct {
	ChartBase64 *string `json:"chart_base64"`
	ChartType   *string `json:"chart_type"`
	Insights    string  `json:"insights"`
	DataQuality string  `json:"data_quality"`
}

// RiskAssessment is present only when the risk sentinel ran.
type RiskAssessment struct {
	RiskLevel        string   `json:"risk_level"`
	ComplianceStatus string   `json:"compliance_status"`
	Issues           []string `json:"issues"`
	GatePassed       bool     `json:"gate_passed"`
}
