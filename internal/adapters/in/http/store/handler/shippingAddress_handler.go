// internal/adapters/in/http/store/handler/shippingAddress_handler.go
package storeHandler

import (
	"errors"
	"net/http"
	"strings"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	addrdom "sodistore/internal/domain/shippingaddress"
)

// ShippingAddressHandler manages the buyer's delivery addresses.
//
// - GET    /store/me/shipping-addresses
// - POST   /store/me/shipping-addresses
// - PATCH  /store/me/shipping-addresses/{id}/default
// - DELETE /store/me/shipping-addresses/{id}
type ShippingAddressHandler struct {
	uc *usecase.ShippingAddressUsecase
}

func NewShippingAddressHandler(uc *usecase.ShippingAddressUsecase) http.Handler {
	return &ShippingAddressHandler{uc: uc}
}

func (h *ShippingAddressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "shipping address handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	rest := pathSuffix(path, "/store/me/shipping-addresses")

	switch {
	case r.Method == http.MethodGet && rest == "":
		h.handleList(w, r, uid)
	case r.Method == http.MethodPost && rest == "":
		h.handleAdd(w, r, uid)
	case r.Method == http.MethodPatch && strings.HasSuffix(rest, "/default"):
		h.handleSetDefault(w, r, uid, strings.TrimSuffix(rest, "/default"))
	case r.Method == http.MethodDelete && rest != "":
		h.handleDelete(w, r, uid, rest)
	default:
		methodNotAllowed(w)
	}
}

func (h *ShippingAddressHandler) handleList(w http.ResponseWriter, r *http.Request, uid string) {
	list, err := h.uc.List(r.Context(), uid)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	dtos := make([]map[string]any, 0, len(list))
	for _, a := range list {
		dtos = append(dtos, addressDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": dtos})
}

type addressReq struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

func (h *ShippingAddressHandler) handleAdd(w http.ResponseWriter, r *http.Request, uid string) {
	var req addressReq
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	a, err := h.uc.Add(r.Context(), uid, usecase.AddInput{
		FullName:   req.FullName,
		Street:     req.Street,
		City:       req.City,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressDTO(a))
}

func (h *ShippingAddressHandler) handleSetDefault(w http.ResponseWriter, r *http.Request, uid, id string) {
	a, err := h.uc.SetDefault(r.Context(), uid, id)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressDTO(a))
}

func (h *ShippingAddressHandler) handleDelete(w http.ResponseWriter, r *http.Request, uid, id string) {
	if err := h.uc.Delete(r.Context(), uid, id); err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *ShippingAddressHandler) writeUCErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, addrdom.ErrNotFound), errors.Is(err, usecase.ErrAddressForbidden):
		notFound(w)
	case errors.Is(err, usecase.ErrAddressInvalidArgument), errors.Is(err, addrdom.ErrInvalidAddress):
		badRequest(w, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func addressDTO(a addrdom.Address) map[string]any {
	return map[string]any{
		"addressId":  a.ID,
		"fullName":   a.FullName,
		"street":     a.Street,
		"city":       a.City,
		"country":    a.Country,
		"postalCode": a.PostalCode,
		"phone":      a.Phone,
		"isDefault":  a.IsDefault,
		"createdAt":  toRFC3339(a.CreatedAt),
		"updatedAt":  toRFC3339(a.UpdatedAt),
	}
}
