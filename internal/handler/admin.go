package handler

import (
	"log/slog"
	"net/http"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleListAllSessions(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAllRecords()
	if err != nil {
		slog.Error("failed to list records", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, withStats(records))
}
