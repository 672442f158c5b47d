package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/partpilot/server/internal/agent/graph"
	"github.com/partpilot/server/internal/agent/model"
	errx "github.com/partpilot/server/internal/core/error"
	logx "github.com/partpilot/server/pkg/logger"
)

const (
	maxBodyBytes       = 1 << 20
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type handlers struct {
	runner      graph.Runner
	catalog     model.CatalogStore
	serviceName string
	environment string
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatMetadata summarizes the conversation slots after the turn. Keys are
// always present so clients can bind to a stable shape.
type ChatMetadata struct {
	Confidence    float64  `json:"confidence"`
	ApplianceType string   `json:"appliance_type"`
	Brand         string   `json:"brand"`
	ModelNumber   string   `json:"model_number"`
	Symptoms      []string `json:"symptoms"`
}

// ChatResponse is the chat endpoint's reply.
type ChatResponse struct {
	Message          string                  `json:"message"`
	ConversationID   string                  `json:"conversation_id"`
	Intent           string                  `json:"intent"`
	RecommendedParts []model.RecommendedPart `json:"recommended_parts"`
	Metadata         ChatMetadata            `json:"metadata"`
}

type errorBody struct {
	Error string `json:"error"`
}

type statusBody struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

func (h *handlers) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{
		Status:      "healthy",
		Service:     h.serviceName,
		Environment: h.environment,
	})
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	state, err := h.runner.Chat(r.Context(), model.QueryInput{
		ConversationID: conversationID,
		Query:          req.Message,
	})
	if err != nil {
		logx.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("chat turn failed")
		writeError(w, errx.StatusOf(err), "agent execution failed")
		return
	}

	recommended := state.RecommendedParts
	if recommended == nil {
		recommended = []model.RecommendedPart{}
	}
	symptoms := state.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Message:          state.FinalResponse,
		ConversationID:   state.ConversationID,
		Intent:           state.Intent.String(),
		RecommendedParts: recommended,
		Metadata: ChatMetadata{
			Confidence:    state.Confidence,
			ApplianceType: state.ApplianceType,
			Brand:         state.Brand,
			ModelNumber:   state.ModelNumber,
			Symptoms:      symptoms,
		},
	})
}

func (h *handlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	category := r.URL.Query().Get("category")
	limit := parseLimit(r.URL.Query().Get("limit"))

	parts, err := h.catalog.SearchParts(r.Context(), query, category, limit)
	if err != nil {
		logx.Error().Err(err).Str("query", query).Msg("product search failed")
		writeError(w, errx.StatusOf(errx.WrapCatalog(err)), errx.CatalogErrorMessage)
		return
	}
	if parts == nil {
		parts = []model.Part{}
	}
	writeJSON(w, http.StatusOK, parts)
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	partNumber := r.PathValue("part_number")

	part, err := h.catalog.GetPart(r.Context(), partNumber)
	if err != nil {
		logx.Error().Err(err).Str("part_number", partNumber).Msg("product lookup failed")
		writeError(w, errx.StatusOf(errx.WrapCatalog(err)), errx.CatalogErrorMessage)
		return
	}
	if part == nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, part)
}

func (h *handlers) getInstallationGuide(w http.ResponseWriter, r *http.Request) {
	partNumber := r.PathValue("part_number")

	guide, err := h.catalog.GetInstallationGuide(r.Context(), partNumber)
	if err != nil {
		logx.Error().Err(err).Str("part_number", partNumber).Msg("guide lookup failed")
		writeError(w, errx.StatusOf(errx.WrapCatalog(err)), errx.CatalogErrorMessage)
		return
	}
	if guide == nil {
		writeError(w, http.StatusNotFound, "Installation guide not found")
		return
	}
	writeJSON(w, http.StatusOK, guide)
}

// parseLimit clamps the limit query parameter into [1, maxSearchLimit].
func parseLimit(raw string) int {
	if raw == "" {
		return defaultSearchLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultSearchLimit
	}
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}

func readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		logx.Error().Err(err).Msg("response marshal failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
