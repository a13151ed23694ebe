// Package httpadapter exposes the vault API: uploads, document lifecycle,
// dashboard reads, and chat.
package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
	"github.com/ciclopsmx/franchise-reports/internal/observability/metrics"
)

type Router struct {
	ingest    ports.DocumentIngestor
	syncer    ports.SummarySyncer
	dashboard ports.DashboardService
	chat      ports.ChatService
	analyses  ports.AnalysisService
	documents ports.DocumentRepository
	summaries ports.SummaryRepository

	opts Options
}

type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int

	// Metrics is optional; handlers record nothing when it is nil.
	Metrics *metrics.HTTPServerMetrics
	Service string
}

func NewRouter(
	ingest ports.DocumentIngestor,
	syncer ports.SummarySyncer,
	dashboard ports.DashboardService,
	chat ports.ChatService,
	analyses ports.AnalysisService,
	documents ports.DocumentRepository,
	summaries ports.SummaryRepository,
	opts Options,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	return &Router{
		ingest:    ingest,
		syncer:    syncer,
		dashboard: dashboard,
		chat:      chat,
		analyses:  analyses,
		documents: documents,
		summaries: summaries,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/upload", rt.upload)
	mux.HandleFunc("/upload/confirm", rt.confirmUpload)
	mux.HandleFunc("/documents", rt.listDocuments)
	mux.HandleFunc("/documents/", rt.documentByID)
	mux.HandleFunc("/vault/resync", rt.resync)
	mux.HandleFunc("/vault/summary", rt.vaultSummary)
	mux.HandleFunc("/vault/stores", rt.vaultStores)
	mux.HandleFunc("/dashboard/stats", rt.dashboardStats)
	mux.HandleFunc("/reports/pnl", rt.pnlReport)
	mux.HandleFunc("/chat", rt.chatCompletion)
	mux.HandleFunc("/analyze/", rt.analyzeDocument)
	mux.HandleFunc("/analyses", rt.listAnalyses)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	result, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.recordUpload("", "rejected")
		writeError(w, r, err)
		return
	}
	rt.recordUpload(string(result.Document.Kind), "accepted")
	if result.ClassifierFallback {
		rt.recordClassifierFallback()
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (rt *Router) recordUpload(kind, status string) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(rt.opts.Service, kind, status)
	}
}

func (rt *Router) recordClassifierFallback() {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordClassifierFallback(rt.opts.Service)
	}
}

func (rt *Router) confirmUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
		StoreID    string `json:"store_id"`
		StoreName  string `json:"store_name"`
		Period     string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document_id is required"})
		return
	}

	err := rt.ingest.Confirm(r.Context(), req.DocumentID, req.StoreID, req.StoreName, req.Period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": req.DocumentID,
		"status":      string(domain.StatusConfirmed),
	})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	docs, err := rt.documents.List(
		r.Context(),
		domain.DocumentStatus(query.Get("status")),
		query.Get("store_id"),
		limit,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.documents.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.ingest.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"document_id": id, "status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) resync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	clean := r.URL.Query().Get("clean") == "true"
	processed, err := rt.syncer.Resync(r.Context(), clean)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processed": processed,
		"clean":     clean,
	})
}

func (rt *Router) vaultSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	var (
		summaries []domain.MonthlySummary
		err       error
	)
	if period := r.URL.Query().Get("period"); period != "" {
		summaries, err = rt.summaries.ListByPeriod(r.Context(), period)
	} else {
		summaries, err = rt.summaries.ListRecent(r.Context(), 50)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []domain.MonthlySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (rt *Router) vaultStores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	stores, err := rt.documents.DistinctStores(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stores == nil {
		stores = []domain.StoreInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (rt *Router) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	stats, err := rt.dashboard.Dashboard(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) pnlReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	report, err := rt.dashboard.PnL(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) chatCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chat is not configured"})
		return
	}

	var req struct {
		Message string               `json:"message"`
		History []domain.ChatMessage `json:"history"`
		StoreID string               `json:"store_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	start := time.Now()
	answer, err := rt.chat.Chat(r.Context(), req.Message, req.History, req.StoreID)
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordChat(rt.opts.Service, time.Since(start), err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.analyses == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "analysis is not configured"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/analyze/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	analysis, err := rt.analyses.Analyze(r.Context(), id, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}

func (rt *Router) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if rt.analyses == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "analysis is not configured"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	analyses, err := rt.analyses.ListAnalyses(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type analysisListItem struct {
		ID         string    `json:"id"`
		Type       string    `json:"type"`
		Query      string    `json:"query"`
		StoreID    string    `json:"store_id,omitempty"`
		TokensUsed int       `json:"tokens_used"`
		CreatedAt  time.Time `json:"created_at"`
	}
	items := make([]analysisListItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, analysisListItem{
			ID:         a.ID,
			Type:       a.Type,
			Query:      truncate(a.Query, 100),
			StoreID:    a.StoreID,
			TokensUsed: a.TokensUsed,
			CreatedAt:  a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(items),
		"analyses": items,
	})
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}

	msg := err.Error()
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
		msg = "upload exceeds size limit"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
