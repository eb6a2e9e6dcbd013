package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"conditional_orderbook/internal/core"
	apperrors "conditional_orderbook/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrOrderNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidOrderParameter),
		errors.Is(err, apperrors.ErrInvalidOrderSide),
		errors.Is(err, apperrors.ErrInvalidOrderStatus),
		errors.Is(err, apperrors.ErrInvalidPair):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// createOrderRequest is the POST /orders wire shape. Side comes in as a raw
// string so an unknown value turns into a 400 rather than a decode error.
type createOrderRequest struct {
	Pair     string          `json:"pair"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	side, err := core.ParseOrderSide(body.Side)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := core.NewOrderRequest{
		Pair:     body.Pair,
		Side:     side,
		Price:    body.Price,
		Quantity: body.Quantity,
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	order, err := s.repo.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := core.ListOrdersQuery{
		Pair: r.URL.Query().Get("pair"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := core.ParseOrderStatus(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		q.Status = status
	}
	q.Limit = parseIntParam(r, "limit")
	q.Offset = parseIntParam(r, "offset")

	orders, err := s.repo.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []core.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	status, err := core.ParseOrderStatus(body.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}

	order, err := s.repo.SetStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// parseIntParam reads an integer query parameter; malformed values fall
// back to zero, which the repository treats as "no limit" / "no offset".
func parseIntParam(r *http.Request, name string) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
