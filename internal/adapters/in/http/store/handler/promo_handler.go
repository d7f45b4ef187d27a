// internal/adapters/in/http/store/handler/promo_handler.go
package storeHandler

import (
	"errors"
	"net/http"
	"strings"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	promodom "sodistore/internal/domain/promo"
)

// PromoHandler applies promo codes to the buyer's cart and exposes the
// admin CRUD surface.
//
// buyer:
// - POST /store/me/promos/apply   {code}
// admin:
// - GET    /store/promos
// - POST   /store/promos
// - PATCH  /store/promos/{id}/toggle
// - DELETE /store/promos/{id}
type PromoHandler struct {
	uc *usecase.PromoUsecase
}

func NewPromoHandler(uc *usecase.PromoUsecase) http.Handler {
	return &PromoHandler{uc: uc}
}

func (h *PromoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "promo handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")

	if strings.HasSuffix(path, "/me/promos/apply") {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleApply(w, r)
		return
	}

	// admin surface
	rest := pathSuffix(path, "/store/promos")
	switch {
	case r.Method == http.MethodGet && rest == "":
		h.handleList(w, r)
	case r.Method == http.MethodPost && rest == "":
		h.handleCreate(w, r)
	case r.Method == http.MethodPatch && strings.HasSuffix(rest, "/toggle"):
		h.handleToggle(w, r, strings.TrimSuffix(rest, "/toggle"))
	case r.Method == http.MethodDelete && rest != "":
		h.handleDelete(w, r, rest)
	default:
		methodNotAllowed(w)
	}
}

func (h *PromoHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		badRequest(w, "code is required")
		return
	}

	c, err := h.uc.Apply(r.Context(), uid, req.Code)
	if err != nil {
		if errors.Is(err, promodom.ErrInvalidOrExpired) {
			writeErrCode(w, http.StatusUnprocessableEntity, "promo_invalid_or_expired", err.Error())
			return
		}
		if errors.Is(err, usecase.ErrPromoInvalidArgument) {
			badRequest(w, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

func (h *PromoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]map[string]any, 0, len(list))
	for _, p := range list {
		dtos = append(dtos, promoDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": dtos})
}

func (h *PromoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code            string `json:"code"`
		DiscountPercent int    `json:"discountPercent"`
		ExpiresInDays   int    `json:"expiresInDays"`
		AccountID       string `json:"accountId"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	p, err := h.uc.Create(r.Context(), usecase.CreateInput{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		ExpiresInDays:   req.ExpiresInDays,
		AccountID:       req.AccountID,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrPromoInvalidArgument) || errors.Is(err, promodom.ErrInvalidPromo) {
			badRequest(w, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, promoDTO(p))
}

func (h *PromoHandler) handleToggle(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.uc.Toggle(r.Context(), id)
	if err != nil {
		if errors.Is(err, promodom.ErrNotFound) {
			notFound(w)
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, promoDTO(p))
}

func (h *PromoHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.uc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, promodom.ErrNotFound) {
			notFound(w)
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func promoDTO(p promodom.Promo) map[string]any {
	return map[string]any{
		"promoId":         p.ID,
		"code":            p.Code,
		"discountPercent": p.DiscountPercent,
		"active":          p.Active,
		"accountId":       p.AccountID,
		"expiresAt":       toRFC3339(p.ExpiresAt),
		"createdAt":       toRFC3339(p.CreatedAt),
	}
}
