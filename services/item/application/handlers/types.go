package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/datavault/pkg/httpx"
	"github.com/ghuser/datavault/services/item/domain/models"
)

// ItemResponse is the boundary representation of an item. Data is raw bytes
// in the domain; encoding/json transports it as a base64 string.
type ItemResponse struct {
	ID        uuid.UUID `json:"id"         example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string    `json:"name"       example:"My Data"`
	Data      []byte    `json:"data"       swaggertype:"string" format:"base64" example:"SGVsbG8gV29ybGQ="`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item not found"`
} // @name ErrorResponse

// MessageResponse is returned by operations with no entity body.
type MessageResponse struct {
	Message string `json:"message" example:"Item deleted successfully"`
} // @name MessageResponse

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name.String(),
		Data:      item.Data,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// itemID extracts and parses the {id} path parameter. On failure it writes a
// 400 response and returns false.
func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
