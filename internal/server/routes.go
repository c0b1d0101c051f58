package server

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"radiolens/internal/report"
	"radiolens/internal/session"
)

// maxUploadBytes caps the multipart form held in memory per request.
const maxUploadBytes = 32 << 20

type Handler struct {
	Pipeline *report.Pipeline
	History  session.Store
	Archive  *session.Archive // optional
}

func NewMux(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", h.handleAnalyze)
	mux.HandleFunc("/v1/history", h.handleHistory)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	return CORS(mux)
}

type analyzeResponse struct {
	RequestID string `json:"request_id"`
	Report    string `json:"report"`
	Summary   string `json:"summary"`
	Cached    bool   `json:"cached,omitempty"`
	Fault     string `json:"fault,omitempty"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	sessionID := strings.TrimSpace(r.FormValue("session_id"))

	res := h.Pipeline.Analyze(r.Context(), file)

	rec := session.Record{
		RequestID: res.RequestID,
		SessionID: sessionID,
		FileName:  filepath.Base(header.Filename),
		Report:    res.Render(),
		Summary:   res.Summary,
		Cached:    res.Cached,
		CreatedAt: time.Now().UTC(),
	}
	if !res.OK() {
		rec.Fault = string(res.Kind)
	}
	if h.History != nil {
		if err := h.History.Append(r.Context(), rec); err != nil {
			log.Printf("history append: %v", err)
		}
	}
	if h.Archive != nil && res.OK() {
		if err := h.Archive.PutReport(r.Context(), res.RequestID, res.Report); err != nil {
			log.Printf("archive report: %v", err)
		}
		if err := h.Archive.PutImage(r.Context(), res.RequestID, res.Normalized); err != nil {
			log.Printf("archive image: %v", err)
		}
	}

	// Faults are part of the uniform contract: the response body is always
	// displayable text, never a stack trace.
	writeJSON(w, http.StatusOK, analyzeResponse{
		RequestID: res.RequestID,
		Report:    res.Render(),
		Summary:   res.Summary,
		Cached:    res.Cached,
		Fault:     rec.Fault,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if h.History == nil {
		writeJSON(w, http.StatusOK, []session.Record{})
		return
	}
	records, err := h.History.List(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []session.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
