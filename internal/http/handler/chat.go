package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tendercortex.app/cortex/internal/brain"
	"tendercortex.app/cortex/internal/cache"
	"tendercortex.app/cortex/internal/http/dto"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/prompts"
)

// PipelineRunner is the graph entry point the chat handlers depend on.
type PipelineRunner interface {
	Answer(ctx context.Context, question string) (brain.AgentState, error)
}

type ChatHandler struct {
	runner PipelineRunner
	store  cache.Store
}

func NewChatHandler(runner PipelineRunner, store cache.Store) *ChatHandler {
	return &ChatHandler{runner: runner, store: store}
}

// Chat answers one question, replaying the cached bytes verbatim on a hit.
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := cache.Key(req.Question)
	if payload, ok := h.store.Get(ctx, key); ok {
		slog.InfoContext(ctx, "chat cache hit", "key", key[:8])
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	state, err := h.runner.Answer(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}

	resp := NewQueryResponse(state)
	payload, err := json.Marshal(resp)
	if err != nil {
		slog.ErrorContext(ctx, "response marshaling failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}

	// A cancelled request never writes a cache entry.
	if ctx.Err() == nil {
		h.store.Set(ctx, key, payload)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// ChatStream answers over SSE: a status event up front, then either a result
// event with the full QueryResponse or an error event.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat stream request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("status", gin.H{"message": "Procesando pregunta..."})
	c.Writer.Flush()

	key := cache.Key(req.Question)
	if payload, ok := h.store.Get(ctx, key); ok {
		var resp dto.QueryResponse
		if err := json.Unmarshal(payload, &resp); err == nil {
			c.SSEvent("result", resp)
			c.Writer.Flush()
			return
		}
	}

	state, err := h.runner.Answer(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "pipeline failed", "error", err)
		c.SSEvent("error", gin.H{"error": "failed to answer question"})
		c.Writer.Flush()
		return
	}

	resp := NewQueryResponse(state)
	if payload, err := json.Marshal(resp); err == nil && ctx.Err() == nil {
		h.store.Set(ctx, key, payload)
	}

	c.SSEvent("result", resp)
	c.Writer.Flush()
}

// NewQueryResponse converts a terminal pipeline state into the wire shape.
func NewQueryResponse(state brain.AgentState) dto.QueryResponse {
	metadata := dto.AgentMetadata{
		Domain:             state.Domain,
		SpecialistUsed:     specialistUsed(state.Domain),
		DocumentsRetrieved: len(state.Context),
		DocumentsFiltered:  len(state.FilteredContext),
		RevisionCount:      state.RevisionCount,
		AuditResult:        state.AuditResult,
	}
	if metadata.AuditResult == "" {
		metadata.AuditResult = "N/A"
	}

	if state.QuantChart != "" || state.QuantInsights != "" {
		quantAnalysis := &dto.QuantAnalysis{
			Insights:    state.QuantInsights,
			DataQuality: state.QuantDataQuality,
		}
		if state.QuantChart != "" {
			quantAnalysis.ChartBase64 = &state.QuantChart
		}
		if state.QuantChartType != "" {
			quantAnalysis.ChartType = &state.QuantChartType
		}
		metadata.QuantAnalysis = quantAnalysis
	}

	if state.RiskLevel != "" {
		issues := state.RiskIssues
		if issues == nil {
			issues = []string{}
		}
		metadata.RiskAssessment = &dto.RiskAssessment{
			RiskLevel:        state.RiskLevel,
			ComplianceStatus: state.ComplianceStatus,
			Issues:           issues,
			GatePassed:       state.GatePassed,
		}
	}

	sources := model.Sources(state.FilteredContext)
	if sources == nil {
		sources = []string{}
	}

	return dto.QueryResponse{
		Answer:        state.Answer,
		Sources:       sources,
		AgentMetadata: metadata,
	}
}

func specialistUsed(domain string) string {
	if domain == prompts.DomainQuantitative {
		return "quant"
	}
	return "specialist_" + domain
}
