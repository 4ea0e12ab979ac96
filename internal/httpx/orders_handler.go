package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/luminis-shop/luminis-api/internal/kafka"
	"github.com/luminis-shop/luminis-api/internal/orders"
)

type OrdersHandler struct {
	Repo     *orders.Repo
	Producer *kafkax.Producer
	Service  string
	Log      *zap.Logger
}

type updateStatusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Post("/api/save-order", h.save)
	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Get("/api/orders", h.list)
		r.Put("/api/orders/{id}", h.updateStatus)
		r.Delete("/api/orders/{id}", h.cancel)
	})
}

func (h *OrdersHandler) save(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var in orders.PlaceOrderInput
	if err := dec.Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.Place(ctx, in)
	if err != nil {
		var stock *orders.InsufficientStockError
		var missing *orders.ProductNotFoundError
		switch {
		case errors.Is(err, orders.ErrValidation):
			fail(w, http.StatusBadRequest, "Missing required fields")
		case errors.As(err, &stock):
			fail(w, http.StatusBadRequest, fmt.Sprintf("Няма достатъчно наличност от %s.", stock.Product))
		case errors.As(err, &missing):
			fail(w, http.StatusBadRequest, missing.Error())
		default:
			h.Log.Error("save order failed", zap.Error(err))
			fail(w, http.StatusInternalServerError, "Failed to save order")
		}
		return
	}

	h.publishCreated(r, in, order)

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": order})
}

func (h *OrdersHandler) publishCreated(r *http.Request, in orders.PlaceOrderInput, o *orders.Order) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: strconv.FormatInt(o.ID, 10),
	}
	ev.Payload = kafkax.MustMarshal(orders.OrderCreatedPayload{
		OrderID:   o.ID,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Phone:     o.Phone,
		Address:   o.Address,
		City:      o.City,
		Note:      o.Note,
		Items:     o.Items,
		Total:     in.Total(),
	})
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.List(ctx)
	if err != nil {
		h.Log.Error("list orders failed", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": out})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	switch err := h.Repo.UpdateStatus(ctx, id, req.Status); {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Order status updated successfully"})
	case errors.Is(err, orders.ErrOrderNotFound):
		fail(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, orders.ErrBadTransition):
		fail(w, http.StatusBadRequest, "Status transition not allowed")
	default:
		h.Log.Error("update order status failed", zap.Int64("order_id", id), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to update order status")
	}
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	restocked, err := h.Repo.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			fail(w, http.StatusNotFound, "Order not found")
			return
		}
		h.Log.Error("cancel order failed", zap.Int64("order_id", id), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	msg := "Order deleted successfully"
	if restocked {
		msg = "Order deleted successfully, and products restocked"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}
