package handlers

import (
	"net/http"

	"github.com/ghuser/datavault/pkg/errhttp"
	"github.com/ghuser/datavault/pkg/httpx"
	appsvcs "github.com/ghuser/datavault/services/item/application/services"
)

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc}
}

// Execute permanently removes an item.
//
//	@Summary		Delete item
//	@Description	Permanently removes one item by its ID
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	MessageResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Item.Delete(r.Context(), id); err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, MessageResponse{Message: "Item deleted successfully"})
}
