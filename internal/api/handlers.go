package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Vodeneev/oddsarchive/internal/pkg/access"
	"github.com/Vodeneev/oddsarchive/internal/pkg/ingest"
	"github.com/Vodeneev/oddsarchive/internal/pkg/listing"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*access.User, bool) {
	u, err := s.users.CurrentUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid identity: %w", err))
		return nil, false
	}
	return u, true
}

// protected admits users the gate allows onto analysis views.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		d := s.gate.Validate(u)
		if !d.Allowed {
			status := http.StatusForbidden
			if d.Reason == access.ReasonGuest {
				status = http.StatusUnauthorized
			}
			writeJSON(w, status, d)
			return
		}
		next(w, r)
	}
}

// managers admits users allowed to upload and clear data.
func (s *Server) managers(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		if u == nil {
			writeError(w, http.StatusUnauthorized, errors.New("sign in required"))
			return
		}
		if !s.gate.CanManageData(u) {
			writeError(w, http.StatusForbidden, errors.New("admin or vip role required"))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        u,
		"analysis":    s.gate.Validate(u),
		"manage_data": s.gate.CanManageData(u),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.DatasetSummary())
}

type activeResponse struct {
	Type    models.DatasetType `json:"type"`
	Count   int                `json:"count"`
	Records []models.Record    `json:"records"`
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	recs := s.svc.GetActiveDataset()
	if recs == nil {
		recs = []models.Record{}
	}
	writeJSON(w, http.StatusOK, activeResponse{
		Type:    s.svc.DatasetSummary().Active,
		Count:   len(recs),
		Records: recs,
	})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	dt, err := models.ParseDatasetType(req.Type)
	if err == nil {
		err = s.svc.SetActiveDataset(dt)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DatasetSummary())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DatasetSummary())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	dt, err := models.ParseDatasetType(mux.Vars(r)["type"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.DeleteDataset(r.Context(), dt); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DatasetSummary())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	dt, err := models.ParseDatasetType(mux.Vars(r)["type"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.svc.Ingest(r.Context(), data, dt)
	if errors.Is(err, sheet.ErrUnsupportedFormat) {
		writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readUpload returns the "file" part of a multipart form, or the raw body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

// handleListing converts a scoreboard payload into records, skipping rows
// without both teams.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	tuples, err := listing.DecodeResponse(r.Body)
	if errors.Is(err, listing.ErrNoMatches) {
		writeJSON(w, http.StatusOK, []models.Record{})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, listing.Records(tuples))
}

func (s *Server) handleSaveSelection(w http.ResponseWriter, r *http.Request) {
	var tuple listing.Tuple
	if err := json.NewDecoder(r.Body).Decode(&tuple); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid tuple: %w", err))
		return
	}
	rec, err := s.svc.SaveSelection(r.Context(), tuple)
	if errors.Is(err, ingest.ErrIncompleteSelection) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Selection(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
