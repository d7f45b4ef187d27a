// internal/adapters/in/http/store/handler/order_handler.go
package storeHandler

import (
	"errors"
	"net/http"
	"strings"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	orderdom "sodistore/internal/domain/order"
)

// OrderHandler serves buyer order reads.
//
// - GET /store/me/orders?page=&perPage=
// - GET /store/me/orders/{id}
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) http.Handler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "order handler is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	id := pathSuffix(path, "/store/me/orders")

	if id == "" {
		h.handleList(w, r, uid)
		return
	}
	h.handleGet(w, r, uid, id)
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request, uid string) {
	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	perPage := parseIntDefault(r.URL.Query().Get("perPage"), 10)

	items, total, err := h.uc.ListMine(r.Context(), uid, page, perPage)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}

	dtos := make([]map[string]any, 0, len(items))
	for _, o := range items {
		dtos = append(dtos, orderDTO(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   dtos,
		"total":   total,
		"page":    page,
		"perPage": perPage,
	})
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request, uid, id string) {
	o, err := h.uc.Get(r.Context(), uid, id)
	if err != nil {
		h.writeUCErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDTO(o))
}

func (h *OrderHandler) writeUCErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderdom.ErrNotFound), errors.Is(err, usecase.ErrOrderForbidden):
		// hide existence of other buyers' orders
		notFound(w)
	case errors.Is(err, usecase.ErrOrderInvalidArgument):
		badRequest(w, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func orderDTO(o orderdom.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"packageId": it.PackageID,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"color":     it.Color,
			"size":      it.Size,
			"weight":    it.Weight,
			"smell":     it.Smell,
		})
	}
	return map[string]any{
		"orderId":           o.ID,
		"snapshotId":        o.SnapshotID,
		"status":            string(o.Status),
		"method":            o.Method,
		"items":             items,
		"shippingAddressId": o.ShippingAddressID,
		"promoCode":         o.PromoCode,
		"currency":          o.Currency,
		"totals": map[string]int{
			"subtotal":   o.Totals.Subtotal,
			"discount":   o.Totals.DiscountAmount,
			"tax":        o.Totals.Tax,
			"grandTotal": o.Totals.GrandTotal,
		},
		"createdAt": toRFC3339(o.CreatedAt),
		"updatedAt": toRFC3339(o.UpdatedAt),
	}
}
