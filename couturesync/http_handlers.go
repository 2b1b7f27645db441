// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alanz0209/KisCoutureApp/internal/auth"
)

// HTTPHandlers exposes the service over the REST API consumed by the
// offline-first clients.
type HTTPHandlers struct {
	service *Service
	logger  *slog.Logger
	appName string
}

// NewHTTPHandlers creates the handler set. appName is echoed by the health
// endpoint so operators can tell deployments apart.
func NewHTTPHandlers(service *Service, appName string, logger *slog.Logger) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandlers{service: service, logger: logger, appName: appName}
}

// Router assembles the chi router. auth may be nil, in which case the API
// routes are unauthenticated (useful in tests).
func (h *HTTPHandlers) Router(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		r.Get("/stats", h.HandleStats)
		r.Post("/sync", h.HandleSync)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.HandleListClients)
			r.Post("/", h.HandleCreateClient)
			r.Get("/{id}", h.HandleGetClient)
			r.Put("/{id}", h.HandleUpdateClient)
			r.Delete("/{id}", h.HandleDeleteClient)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.HandleListOrders)
			r.Post("/", h.HandleCreateOrder)
			r.Get("/{id}", h.HandleGetOrder)
			r.Put("/{id}", h.HandleUpdateOrder)
			r.Delete("/{id}", h.HandleDeleteOrder)
		})
		r.Route("/measurements", func(r chi.Router) {
			r.Get("/", h.HandleListMeasurements)
			r.Post("/", h.HandleCreateMeasurement)
			r.Get("/client/{clientID}", h.HandleListMeasurementsByClient)
			r.Get("/{id}", h.HandleGetMeasurement)
			r.Put("/{id}", h.HandleUpdateMeasurement)
			r.Delete("/{id}", h.HandleDeleteMeasurement)
		})
	})

	return r
}

func (h *HTTPHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", AppName: h.appName})
}

func (h *HTTPHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		h.serverError(w, "stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *HTTPHandlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse sync request")
		return
	}
	if operator, ok := auth.Operator(r.Context()); ok {
		h.logger.Info("sync batch received", "operator", operator,
			"clients", len(req.Clients), "orders", len(req.Orders),
			"measurements", len(req.Measurements))
	}
	resp, err := h.service.ProcessSync(r.Context(), &req)
	if err != nil {
		h.serverError(w, "sync", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// --- Clients ---

func (h *HTTPHandlers) HandleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.serverError(w, "list clients", err)
		return
	}
	h.writeJSON(w, http.StatusOK, clients)
}

func (h *HTTPHandlers) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.lookupError(w, "get client", err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *HTTPHandlers) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse client")
		return
	}
	if c.Nom == "" || c.Prenoms == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "nom and prenoms are required")
		return
	}
	created, err := h.service.CreateClient(r.Context(), c)
	if err != nil {
		h.serverError(w, "create client", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandlers) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch ClientPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse client patch")
		return
	}
	updated, err := h.service.UpdateClient(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.lookupError(w, "update client", err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandlers) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.lookupError(w, "delete client", err)
		return
	}
	h.writeJSON(w, http.StatusOK, DeleteResponse{Message: "client deleted"})
}

// --- Orders ---

func (h *HTTPHandlers) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.serverError(w, "list orders", err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandlers) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.lookupError(w, "get order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

func (h *HTTPHandlers) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var o Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse order")
		return
	}
	if o.ClientID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "client_id is required")
		return
	}
	created, err := h.service.CreateOrder(r.Context(), o)
	if err != nil {
		h.serverError(w, "create order", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandlers) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var patch OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse order patch")
		return
	}
	updated, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.lookupError(w, "update order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandlers) HandleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.lookupError(w, "delete order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, DeleteResponse{Message: "order deleted"})
}

// --- Measurements ---

func (h *HTTPHandlers) HandleListMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := h.service.ListMeasurements(r.Context())
	if err != nil {
		h.serverError(w, "list measurements", err)
		return
	}
	h.writeJSON(w, http.StatusOK, measurements)
}

func (h *HTTPHandlers) HandleListMeasurementsByClient(w http.ResponseWriter, r *http.Request) {
	measurements, err := h.service.ListMeasurementsByClient(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		h.serverError(w, "list client measurements", err)
		return
	}
	h.writeJSON(w, http.StatusOK, measurements)
}

func (h *HTTPHandlers) HandleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMeasurement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.lookupError(w, "get measurement", err)
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

func (h *HTTPHandlers) HandleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var m Measurement
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse measurement")
		return
	}
	if m.ClientID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "client_id is required")
		return
	}
	created, err := h.service.CreateMeasurement(r.Context(), m)
	if err != nil {
		h.serverError(w, "create measurement", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandlers) HandleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	var patch MeasurementPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse measurement patch")
		return
	}
	updated, err := h.service.UpdateMeasurement(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.lookupError(w, "update measurement", err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandlers) HandleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMeasurement(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.lookupError(w, "delete measurement", err)
		return
	}
	h.writeJSON(w, http.StatusOK, DeleteResponse{Message: "measurement deleted"})
}

// --- helpers ---

func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *HTTPHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// lookupError maps ErrRecordNotFound to 404 and everything else to 500.
func (h *HTTPHandlers) lookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrRecordNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Record not found")
		return
	}
	h.serverError(w, op, err)
}

func (h *HTTPHandlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Request failed", "op", op, "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}
