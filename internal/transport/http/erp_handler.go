// Copyright 2026 The Tradeplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tradeplane/tradeplane/internal/erp"
	"github.com/tradeplane/tradeplane/internal/tenantctx"
)

// Business record handlers. These are deliberately thin: the scoping
// contract lives in the erp service, the handlers only translate errors.
// Request DTOs carry no tenant field, so a stray tenant id in a payload is
// dropped at decode time.

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	suppliers, err := h.erpService.ListSuppliers(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list suppliers")
		return
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var in erp.SupplierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sup, err := h.erpService.CreateSupplier(r.Context(), in)
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sup)
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := h.erpService.GetSupplier(r.Context(), chi.URLParam(r, "supplierID"))
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sup)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	customers, err := h.erpService.ListCustomers(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in erp.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.erpService.CreateCustomer(r.Context(), in)
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.erpService.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	orders, err := h.erpService.ListOrders(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in erp.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.erpService.CreateOrder(r.Context(), in)
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.erpService.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.erpService.UpdateOrderStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		respondERPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func respondERPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, erp.ErrNotFound):
		respondError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, tenantctx.ErrTenantRequired):
		respondError(w, http.StatusBadRequest, "a tenant scope is required")
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
