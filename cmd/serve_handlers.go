package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/internal/scan"
	"github.com/sells-group/pokescan/internal/store"
)

// scanHandlers holds the HTTP handlers for the scan API.
type scanHandlers struct {
	svc *scan.Service
}

type analyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
	UserHints   *struct {
		GradingCompany string `json:"gradingCompany,omitempty"`
	} `json:"userHints,omitempty"`
}

type confirmRequest struct {
	CardCatalogID  string  `json:"cardCatalogId"`
	GradingCompany string  `json:"gradingCompany"`
	GradeNumeric   float64 `json:"gradeNumeric"`
}

func (h *scanHandlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "pokescan-api"})
}

func (h *scanHandlers) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "imageBase64 is required")
		return
	}

	var hint model.GradingCompany
	if req.UserHints != nil && req.UserHints.GradingCompany != "" {
		hint = model.GradingCompany(req.UserHints.GradingCompany)
		if !hint.Valid() {
			writeError(w, http.StatusBadRequest, "gradingCompany must be one of PSA, BGS, CGC")
			return
		}
	}

	record, err := h.svc.Analyze(r.Context(), req.ImageBase64, hint)
	if err != nil {
		zap.L().Error("analyze scan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to analyze scan")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scanId":                record.ScanID,
		"identity":              record.Identity,
		"valuation":             record.Valuation,
		"needsUserConfirmation": record.NeedsUserConfirmation,
	})
}

func (h *scanHandlers) get(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Get(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		zap.L().Error("get scan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *scanHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CardCatalogID == "" {
		writeError(w, http.StatusBadRequest, "cardCatalogId is required")
		return
	}
	if !model.GradingCompany(req.GradingCompany).Valid() {
		writeError(w, http.StatusBadRequest, "gradingCompany must be one of PSA, BGS, CGC")
		return
	}
	if req.GradeNumeric < 1 || req.GradeNumeric > 10 {
		writeError(w, http.StatusBadRequest, "gradeNumeric must be between 1 and 10")
		return
	}

	record, err := h.svc.Confirm(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		zap.L().Error("confirm scan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to confirm scan")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scanId":    record.ScanID,
		"status":    record.Status,
		"valuation": record.Valuation,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
