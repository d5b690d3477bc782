package service

import (
	"context"
	"strings"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// AssetService manages the inventory register.
type AssetService struct {
	store repository.Store
}

// AssetInput describes a new asset.
type AssetInput struct {
	Name   string
	Type   string
	Serial string
}

// NewAssetService builds the service.
func NewAssetService(store repository.Store) *AssetService {
	return &AssetService{store: store}
}

// Create registers an asset.
func (s *AssetService) Create(ctx context.Context, input AssetInput) (*domain.Asset, error) {
	asset := &domain.Asset{
		Name:   strings.TrimSpace(input.Name),
		Type:   strings.TrimSpace(input.Type),
		Serial: strings.TrimSpace(input.Serial),
	}
	if asset.Name == "" {
		return nil, apperrors.NewValidationError("nombre is required", map[string]any{"nombre": "required"})
	}
	if err := s.store.Repos().Assets.Create(ctx, asset); err != nil {
		return nil, apperrors.FromStore(err, "activo")
	}
	return asset, nil
}

// List returns every asset ordered by name.
func (s *AssetService) List(ctx context.Context) ([]domain.Asset, error) {
	assets, err := s.store.Repos().Assets.List(ctx)
	if err != nil {
		return nil, apperrors.FromStore(err, "activo")
	}
	return assets, nil
}

// Delete removes an asset that no ticket references.
func (s *AssetService) Delete(ctx context.Context, id int64) error {
	err := s.store.Repos().Assets.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case apperrors.IsForeignKeyViolation(err):
		return apperrors.NewConflict("activo en uso", map[string]any{"activo_id": id})
	default:
		return apperrors.FromStore(err, "activo")
	}
}
