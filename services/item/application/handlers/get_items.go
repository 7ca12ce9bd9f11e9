package handlers

import (
	"net/http"

	"github.com/ghuser/datavault/pkg/errhttp"
	"github.com/ghuser/datavault/pkg/httpx"
	appsvcs "github.com/ghuser/datavault/services/item/application/services"
)

// GetItemsHandler handles GET /items requests.
type GetItemsHandler struct {
	svc *appsvcs.Services
}

// NewGetItemsHandler returns a GetItemsHandler backed by the given services.
func NewGetItemsHandler(svc *appsvcs.Services) *GetItemsHandler {
	return &GetItemsHandler{svc: svc}
}

// Execute lists all items ordered by creation time ascending.
//
//	@Summary		List items
//	@Description	Returns every stored item
//	@Tags			items
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items [get]
func (h *GetItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Item.List(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item)
	}
	httpx.JSON(w, http.StatusOK, out)
}
