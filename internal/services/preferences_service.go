package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/repositories"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

type PreferencesServiceInterface interface {
	Get(ctx context.Context, entity string) (*dto.PreferencesDTO, error)
	Update(ctx context.Context, entity string, payload dto.UpdatePreferencesDTO) (*dto.PreferencesDTO, error)
}

type PreferencesService struct {
	repo   repositories.PreferencesRepositoryInterface
	logger *zap.Logger
}

func NewPreferencesService(repo repositories.PreferencesRepositoryInterface, logger *zap.Logger) PreferencesServiceInterface {
	return &PreferencesService{repo: repo, logger: logger}
}

func (s *PreferencesService) Get(ctx context.Context, entity string) (*dto.PreferencesDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	def, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}

	prefs, err := s.repo.Get(ctx, userID, def.Name)
	if err != nil {
		return nil, err
	}
	return &dto.PreferencesDTO{LastVisitedID: prefs.LastVisitedID, VisibleFields: prefs.VisibleFields}, nil
}

// Update меняет только переданные поля. Видимые колонки проверяются по схеме
// сущности, повторы отбрасываются.
func (s *PreferencesService) Update(ctx context.Context, entity string, payload dto.UpdatePreferencesDTO) (*dto.PreferencesDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	def, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}

	prefs, err := s.repo.Get(ctx, userID, def.Name)
	if err != nil {
		return nil, err
	}

	if payload.LastVisitedID != nil {
		prefs.LastVisitedID = *payload.LastVisitedID
	}
	if payload.VisibleFields != nil {
		seen := make(map[string]bool, len(payload.VisibleFields))
		fields := make([]string, 0, len(payload.VisibleFields))
		for _, key := range payload.VisibleFields {
			if !def.Schema.Has(key) {
				return nil, apperrors.NewBadRequestError(fmt.Sprintf("Unknown field %q for %s.", key, def.Name))
			}
			if !seen[key] {
				seen[key] = true
				fields = append(fields, key)
			}
		}
		prefs.VisibleFields = fields
	}

	if err := s.repo.Save(ctx, userID, def.Name, prefs); err != nil {
		return nil, err
	}
	return &dto.PreferencesDTO{LastVisitedID: prefs.LastVisitedID, VisibleFields: prefs.VisibleFields}, nil
}
