package httpapi

import (
	"errors"
	"net/http"
	"time"

	"qbodega/backend/internal/domain"
)

func (a *API) handlePromotions(w http.ResponseWriter, r *http.Request) {
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

		promos, err := a.service.SearchPromotions(r.Context(), domain.PromotionFilter{
			Name:      query.Get("name"),
			Type:      domain.PromotionType(query.Get("type")),
			Status:    domain.PromotionStatus(query.Get("status")),
			ProductID: query.Get("product_id"),
			From:      from,
			To:        to,
		})
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"promotions": promos})
	case http.MethodPost:
		var req domain.PromotionCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		promo, err := a.service.CreatePromotion(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"promotion": promo})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handlePromotionActions(w http.ResponseWriter, r *http.Request) {
	promoID := pathID(r.URL.Path, "/api/v1/promotions/")
	if promoID == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("promotion id required"))
		return
	}
	if promoID == "active" {
		a.handleActivePromotions(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		promo, err := a.service.GetPromotion(r.Context(), promoID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"promotion": promo})
	case http.MethodPatch:
		var req domain.PromotionUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		promo, err := a.service.UpdatePromotion(r.Context(), promoID, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"promotion": promo})
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.service.DeletePromotion(r.Context(), promoID); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleActivePromotions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	asOf, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	promos, err := a.service.ActivePromotions(r.Context(), asOf)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promotions": promos})
}

type cartTotalsRequest struct {
	Items []domain.CartLine `json:"items"`
}

func (a *API) handleCartTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req cartTotalsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	totals, err := a.service.CalculateCart(r.Context(), req.Items)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals": totals})
}
