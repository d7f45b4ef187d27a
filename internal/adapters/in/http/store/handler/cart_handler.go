// internal/adapters/in/http/store/handler/cart_handler.go
package storeHandler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	cartdom "sodistore/internal/domain/cart"
)

// CartHandler serves the buyer cart endpoints.
//
// - GET    /store/me/cart        current cart with totals
// - DELETE /store/me/cart        clear (idempotent)
// - POST   /store/me/cart/items  add a line
// - PUT    /store/me/cart/items  set line qty (0 removes)
// - DELETE /store/me/cart/items  remove a line
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")

	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}

	if h.uc == nil {
		log.Printf("[store_cart_handler] exit status=500 reason=uc is nil elapsed=%s", time.Since(start))
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	isItems := strings.HasSuffix(path, "/cart/items")

	switch {
	case r.Method == http.MethodGet && !isItems:
		h.handleGet(w, r, uid)
	case r.Method == http.MethodDelete && !isItems:
		h.handleClear(w, r, uid)
	case r.Method == http.MethodPost && isItems:
		h.handleAddLine(w, r, uid)
	case r.Method == http.MethodPut && isItems:
		h.handleSetQty(w, r, uid)
	case r.Method == http.MethodDelete && isItems:
		h.handleRemoveLine(w, r, uid)
	default:
		methodNotAllowed(w)
	}
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request, uid string) {
	c, err := h.uc.Get(r.Context(), uid)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request, uid string) {
	if err := h.uc.Clear(r.Context(), uid); err != nil {
		h.writeUCErr(w, err)
		return
	}
	c, err := h.uc.Get(r.Context(), uid)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

type cartLineReq struct {
	ProductID string `json:"productId"`
	PackageID string `json:"packageId"`
	LineID    string `json:"lineId"`
	Qty       int    `json:"qty"`
	UnitPrice int    `json:"unitPrice"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Weight    string `json:"weight"`
	Smell     string `json:"smell"`
}

func (h *CartHandler) handleAddLine(w http.ResponseWriter, r *http.Request, uid string) {
	var req cartLineReq
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	c, err := h.uc.AddLine(r.Context(), uid, usecase.AddLineInput{
		ProductID: strings.TrimSpace(req.ProductID),
		PackageID: strings.TrimSpace(req.PackageID),
		Qty:       req.Qty,
		UnitPrice: req.UnitPrice,
		Variant: cartdom.VariantSelection{
			Color:  strings.TrimSpace(req.Color),
			Size:   strings.TrimSpace(req.Size),
			Weight: strings.TrimSpace(req.Weight),
			Smell:  strings.TrimSpace(req.Smell),
		},
	})
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

func (h *CartHandler) handleSetQty(w http.ResponseWriter, r *http.Request, uid string) {
	var req cartLineReq
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if strings.TrimSpace(req.LineID) == "" {
		badRequest(w, "lineId is required")
		return
	}

	c, err := h.uc.SetQty(r.Context(), uid, strings.TrimSpace(req.LineID), req.Qty)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

func (h *CartHandler) handleRemoveLine(w http.ResponseWriter, r *http.Request, uid string) {
	var req cartLineReq
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if strings.TrimSpace(req.LineID) == "" {
		badRequest(w, "lineId is required")
		return
	}

	c, err := h.uc.RemoveLine(r.Context(), uid, strings.TrimSpace(req.LineID))
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(c))
}

func (h *CartHandler) writeUCErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrCartInvalidArgument), errors.Is(err, cartdom.ErrInvalidCart), errors.Is(err, cartdom.ErrInvalidLine):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrCartNotFound):
		notFound(w)
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// ------------------------------------------------------------
// DTO
// ------------------------------------------------------------

func cartDTO(c *cartdom.Cart) map[string]any {
	if c == nil {
		return map[string]any{"lines": []any{}, "totals": map[string]int{}}
	}

	lines := make([]map[string]any, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, map[string]any{
			"lineId":    l.ID,
			"productId": l.ProductID,
			"packageId": l.PackageID,
			"qty":       l.Qty,
			"unitPrice": l.UnitPrice,
			"color":     l.Variant.Color,
			"size":      l.Variant.Size,
			"weight":    l.Variant.Weight,
			"smell":     l.Variant.Smell,
		})
	}

	dto := map[string]any{
		"accountId": c.ID,
		"lines":     lines,
		"totals": map[string]int{
			"subtotal":   c.Totals.Subtotal,
			"discount":   c.Totals.DiscountAmount,
			"tax":        c.Totals.Tax,
			"grandTotal": c.Totals.GrandTotal,
		},
		"createdAt": toRFC3339(c.CreatedAt),
		"updatedAt": toRFC3339(c.UpdatedAt),
		"expiresAt": toRFC3339(c.ExpiresAt),
	}
	if c.Promo != nil {
		dto["promo"] = map[string]any{
			"code":            c.Promo.Code,
			"discountPercent": c.Promo.DiscountPercent,
		}
	}
	return dto
}
