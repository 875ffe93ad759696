package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"qbodega/backend/internal/domain"
)

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
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

		sales, err := a.service.SearchSales(r.Context(), domain.SaleFilter{
			ID:            query.Get("id"),
			PaymentMethod: domain.PaymentMethod(query.Get("payment_method")),
			From:          from,
			To:            to,
		})
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var draft domain.SaleDraft
		if err := decodeJSON(r, &draft); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		sale, err := a.service.RegisterSale(r.Context(), draft)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
	default:
		a.writeMethodNotAllowed(w)
	}
}

// handleSaleActions serves /api/v1/sales/{id} and /api/v1/sales/{id}/returns.
func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	rest := pathID(r.URL.Path, "/api/v1/sales/")
	saleID, sub, _ := strings.Cut(rest, "/")
	if saleID == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("sale id required"))
		return
	}

	switch sub {
	case "":
		sale, err := a.service.GetSale(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
	case "returns":
		returns, err := a.service.ListReturnsBySale(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"returns": returns})
	default:
		a.writeError(w, http.StatusNotFound, errors.New("unknown sale resource"))
	}
}

func (a *API) handleReturns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		returns, err := a.service.ListReturns(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"returns": returns})
	case http.MethodPost:
		var req domain.ReturnRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}

		ret, err := a.service.ProcessReturn(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"return": ret})
	default:
		a.writeMethodNotAllowed(w)
	}
}
