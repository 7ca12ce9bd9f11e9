package handlers

import (
	"net/http"

	"github.com/ghuser/datavault/pkg/errhttp"
	"github.com/ghuser/datavault/pkg/httpx"
	appsvcs "github.com/ghuser/datavault/services/item/application/services"
)

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct {
	svc *appsvcs.Services
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services) *GetItemHandler {
	return &GetItemHandler{svc: svc}
}

// Execute retrieves a single item by ID.
//
//	@Summary		Get item
//	@Description	Returns one item by its ID
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	ItemResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.GetByID(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}
