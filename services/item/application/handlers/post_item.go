package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/ghuser/datavault/pkg/errhttp"
	"github.com/ghuser/datavault/pkg/httpx"
	pkgvalidator "github.com/ghuser/datavault/pkg/validator"
	appsvcs "github.com/ghuser/datavault/services/item/application/services"
)

// CreateItemRequest is the request body for POST /items.
type CreateItemRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" example:"My Data"`
	Data string `json:"data" validate:"required,base64"        example:"SGVsbG8gV29ybGQ="`
} // @name CreateItemRequest

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc *appsvcs.Services
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services) *PostItemHandler {
	return &PostItemHandler{svc: svc}
}

// Execute creates a new item.
//
//	@Summary		Create item
//	@Description	Stores a new named binary payload
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "data must be valid base64")
		return
	}

	item, err := h.svc.Item.Create(r.Context(), req.Name, data)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}
