package dto

import (
	"time"

	"github.com/northgate/helpdesk/internal/domain"
)

// CreateAssetRequest payload.
type CreateAssetRequest struct {
	Nombre string `json:"nombre" validate:"required,max=200"`
	Tipo   string `json:"tipo" validate:"max=100"`
	Serial string `json:"serial" validate:"max=100"`
}

// AssetResponse is the API view of an asset.
type AssetResponse struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
	Tipo      string    `json:"tipo"`
	Serial    string    `json:"serial"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAssetResponse maps an asset to its API view.
func NewAssetResponse(a *domain.Asset) AssetResponse {
	return AssetResponse{ID: a.ID, Nombre: a.Name, Tipo: a.Type, Serial: a.Serial, CreatedAt: a.CreatedAt}
}
