package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/ghuser/datavault/pkg/errhttp"
	"github.com/ghuser/datavault/pkg/httpx"
	pkgvalidator "github.com/ghuser/datavault/pkg/validator"
	appsvcs "github.com/ghuser/datavault/services/item/application/services"
	"github.com/ghuser/datavault/services/item/domain/repositories"
)

// UpdateItemRequest is the partial request body for PUT /items/{id}.
// Absent fields keep their stored values; an empty body is a valid no-op
// that still refreshes updated_at.
type UpdateItemRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255" example:"Updated Name"`
	Data *string `json:"data" validate:"omitempty,base64"        example:"SGVsbG8gV29ybGQ="`
} // @name UpdateItemRequest

// PutItemHandler handles PUT /items/{id} requests.
type PutItemHandler struct {
	svc *appsvcs.Services
}

// NewPutItemHandler returns a PutItemHandler backed by the given services.
func NewPutItemHandler(svc *appsvcs.Services) *PutItemHandler {
	return &PutItemHandler{svc: svc}
}

// Execute applies a partial update to an existing item.
//
//	@Summary		Update item
//	@Description	Updates only the supplied fields of an item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"
//	@Param			request	body		UpdateItemRequest	true	"Partial item update"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items/{id} [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	fields := repositories.UpdateItem{Name: req.Name}
	if req.Data != nil {
		data, err := base64.StdEncoding.DecodeString(*req.Data)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "data must be valid base64")
			return
		}
		fields.Data = &data
	}

	item, err := h.svc.Item.Update(r.Context(), id, fields)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}
