// Package handler exposes the training progress pipeline over HTTP: account
// registration and login, performance submission, session listing, and PDF
// report download.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/piperalpha/training/internal/i18n"
	"github.com/piperalpha/training/internal/model"
	"github.com/piperalpha/training/internal/report"
	"github.com/piperalpha/training/internal/session"
	"github.com/piperalpha/training/internal/store"
)

const apiVersion = "1.0.0"

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	norm   *session.Normalizer
	tokens *TokenIssuer
}

// New creates a new Handler.
func New(s *store.Store, norm *session.Normalizer, tokens *TokenIssuer) *Handler {
	return &Handler{store: s, norm: norm, tokens: tokens}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleHealth)
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	// The game client submits directly, without an account token.
	r.Post("/performance", h.handleSubmitPerformance)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.handleMe)
		r.Get("/performance/{email}", h.handleListPerformance)
		r.Get("/download-report/{sessionID}", h.handleDownloadReport)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleAdmin))
			r.Get("/admin/users", h.handleListUsers)
			r.Get("/admin/sessions", h.handleListAllSessions)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Piper Alpha Training API is running",
		"version": apiVersion,
	})
}

// submitRequest is the submission shape: 0 to 7 chapter entries. Any
// client-supplied timestamp is simply not part of the schema; sessions are
// stamped server-side.
type submitRequest struct {
	Email    string             `json:"email"`
	Chapters []model.RawChapter `json:"chapters"`
}

type submitResponse struct {
	Message          string `json:"message"`
	SessionID        int64  `json:"session_id"`
	SessionTimestamp string `json:"session_timestamp"`
}

func (h *Handler) handleSubmitPerformance(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.norm.Normalize(req.Email, req.Chapters)
	if err != nil {
		var verr *session.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Detail: verr.Error(),
				Errors: verr.Fields,
			})
		case errors.Is(err, session.ErrUnknownOwner):
			writeError(w, http.StatusNotFound,
				appI18n.Td(r.Context(), "OwnerNotFound", map[string]any{"Email": req.Email}))
		default:
			slog.Error("normalize failed", "email", req.Email, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	id, err := h.store.CreateRecord(rec)
	if err != nil {
		slog.Error("failed to persist session record", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("recorded training session", "session_id", id, "email", req.Email)

	writeJSON(w, http.StatusCreated, submitResponse{
		Message:          appI18n.T(r.Context(), "SubmitSuccess"),
		SessionID:        id,
		SessionTimestamp: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// recordView is a session record plus its on-demand statistics, as returned
// by the listing endpoints.
type recordView struct {
	model.SessionRecord
	Stats session.Stats `json:"stats"`
}

func withStats(records []model.SessionRecord) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{SessionRecord: rec, Stats: session.Derive(rec)})
	}
	return views
}

func (h *Handler) handleListPerformance(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !h.authorizeOwner(w, r, email) {
		return
	}

	owner, err := h.store.GetUserByEmail(email)
	if err != nil {
		slog.Error("failed to get user", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if owner == nil {
		writeError(w, http.StatusNotFound,
			appI18n.Td(r.Context(), "OwnerNotFound", map[string]any{"Email": email}))
		return
	}

	records, err := h.store.ListRecordsByOwner(email)
	if err != nil {
		slog.Error("failed to list records", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, withStats(records))
}

func (h *Handler) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	rec, err := h.store.GetRecord(id)
	if err != nil {
		slog.Error("failed to get record", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "SessionNotFound"))
		return
	}
	if !h.authorizeOwner(w, r, rec.OwnerEmail) {
		return
	}

	owner, err := h.store.GetUserByEmail(rec.OwnerEmail)
	if err != nil || owner == nil {
		slog.Error("failed to get record owner", "email", rec.OwnerEmail, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	stats := session.Derive(*rec)
	pdf, err := report.Render(owner.TraineeName, owner.Email, rec.CreatedAt, *rec, stats)
	if err != nil {
		// An invalid record here is a defect in the pipeline, not a bad
		// request; log loudly and fail opaquely.
		slog.Error("report synthesis failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+report.Filename(owner.TraineeName, rec.CreatedAt))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Error("failed to write pdf response", "session_id", id, "error", err)
	}
}

// authorizeOwner lets a user at their own data and admins at everything.
// Writes the failure response itself and reports whether to continue.
func (h *Handler) authorizeOwner(w http.ResponseWriter, r *http.Request, ownerEmail string) bool {
	user := model.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
		return false
	}
	if user.Email != ownerEmail && user.Role != model.RoleAdmin {
		writeError(w, http.StatusForbidden, appI18n.T(r.Context(), "Forbidden"))
		return false
	}
	return true
}
