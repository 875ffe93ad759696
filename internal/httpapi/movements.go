package httpapi

import (
	"errors"
	"net/http"

	"qbodega/backend/internal/domain"
)

func (a *API) handleMovements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		from, err := parseDate(query.Get("from"))
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		to, err := parseDate(query.Get("to"))
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		movements, err := a.service.ListMovements(r.Context(), domain.MovementFilter{
			Query:     query.Get("q"),
			Type:      domain.MovementType(query.Get("type")),
			ProductID: query.Get("product_id"),
			User:      query.Get("user"),
			From:      from,
			To:        to,
		})
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movements": movements})
	case http.MethodPost:
		var req domain.MovementRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		movement, err := a.service.RecordMovement(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"movement": movement})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleMovementActions(w http.ResponseWriter, r *http.Request) {
	movementID := pathID(r.URL.Path, "/api/v1/movements/")
	if movementID == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("movement id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		movement, err := a.service.GetMovement(r.Context(), movementID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movement": movement})
	case http.MethodPatch:
		var req domain.MovementUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		movement, err := a.service.UpdateMovement(r.Context(), movementID, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movement": movement})
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.service.DeleteMovement(r.Context(), movementID); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}
