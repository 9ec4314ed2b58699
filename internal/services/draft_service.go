package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/internal/workflow"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/utils"
)

// OptionsProvider — варианты выбора для ассоциаций формы.
type OptionsProvider interface {
	Get(ctx context.Context, entity string) ([]entities.Option, error)
	Invalidate(entity string)
}

type DraftServiceInterface interface {
	Create(ctx context.Context, entity string) (*workflow.Draft, error)
	Get(ctx context.Context, id string) (*workflow.Draft, error)
	SetPayload(ctx context.Context, id string, payload dto.DraftPayloadDTO) (*workflow.Draft, error)
	AddInline(ctx context.Context, id, assocType string, payload dto.InlineAssociationDTO) (*workflow.Draft, error)
	Select(ctx context.Context, id, assocType string, selection dto.DraftSelectionDTO) (*workflow.Draft, error)
	Deselect(ctx context.Context, id, assocType string, optionID restclient.ID) (*workflow.Draft, error)
	Submit(ctx context.Context, id string) (*dto.WorkflowReportDTO, error)
}

type DraftService struct {
	repo     repositories.DraftRepositoryInterface
	options  OptionsProvider
	runner   *workflow.Runner
	workflow WorkflowServiceInterface
	logger   *zap.Logger
}

func NewDraftService(
	repo repositories.DraftRepositoryInterface,
	options OptionsProvider,
	runner *workflow.Runner,
	workflowService WorkflowServiceInterface,
	logger *zap.Logger,
) DraftServiceInterface {
	return &DraftService{
		repo:     repo,
		options:  options,
		runner:   runner,
		workflow: workflowService,
		logger:   logger,
	}
}

// Create открывает форму создания: подгружает варианты всех ассоциаций.
func (s *DraftService) Create(ctx context.Context, entity string) (*workflow.Draft, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	def, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}

	draft := workflow.NewDraft(uuid.NewString(), def, userID)
	for _, assoc := range def.Associations {
		options, err := s.options.Get(ctx, assoc.Entity)
		if err != nil {
			return nil, fmt.Errorf("варианты для %s: %w", assoc.Type, err)
		}
		draft.SetOptions(assoc.Type, options)
	}

	if err := s.repo.Save(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Debug("Черновик создан", zap.String("draftID", draft.ID), zap.String("entity", def.Name))
	return draft, nil
}

// Get — только черновики текущего пользователя.
func (s *DraftService) Get(ctx context.Context, id string) (*workflow.Draft, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	draft, err := s.repo.Find(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && draft.UserID != userID) {
		return nil, apperrors.NewNotFoundError("Draft not found or expired.")
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) load(ctx context.Context, id string) (*workflow.Draft, entities.Definition, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, entities.Definition{}, err
	}
	def, err := lookupEntity(draft.Entity)
	if err != nil {
		return nil, entities.Definition{}, err
	}
	return draft, def, nil
}

func (s *DraftService) SetPayload(ctx context.Context, id string, payload dto.DraftPayloadDTO) (*workflow.Draft, error) {
	draft, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.Payload = workflow.Payload(payload.Payload).Clone()
	if err := s.repo.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// AddInline создаёт ассоциацию из вложенного окна формы и сразу выбирает её.
// Привязка к родителю произойдёт при Submit.
func (s *DraftService) AddInline(ctx context.Context, id, assocType string, payload dto.InlineAssociationDTO) (*workflow.Draft, error) {
	draft, def, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	assoc, ok := def.Association(assocType)
	if !ok {
		return nil, &workflow.ValidationError{Field: assocType, Message: fmt.Sprintf("Unknown association %q for %s.", assocType, def.Name)}
	}
	if !assoc.Inline {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("%s cannot be created from this form.", assoc.Label))
	}
	assocDef, err := lookupEntity(assoc.Entity)
	if err != nil {
		return nil, err
	}

	option, err := s.runner.CreateAssociation(ctx, assocDef, workflow.Payload(payload.Payload))
	if err != nil {
		return nil, err
	}
	s.options.Invalidate(assocDef.Name)

	if err := draft.AddOption(def, assocType, option); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Info("Ассоциация создана из формы",
		zap.String("draftID", draft.ID),
		zap.String("association", assocType),
		zap.String("id", option.ID.String()),
	)
	return draft, nil
}

func (s *DraftService) Select(ctx context.Context, id, assocType string, selection dto.DraftSelectionDTO) (*workflow.Draft, error) {
	draft, def, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := draft.Select(def, assocType, selection.IDs); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) Deselect(ctx context.Context, id, assocType string, optionID restclient.ID) (*workflow.Draft, error) {
	draft, def, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := draft.Deselect(def, assocType, optionID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Submit отправляет форму. После создания родителя черновик удаляется, даже
// если часть привязок не прошла: они уже в отчёте и в журнале.
func (s *DraftService) Submit(ctx context.Context, id string) (*dto.WorkflowReportDTO, error) {
	draft, def, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.workflow.Run(ctx, draft.Request(def))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("Не удалось удалить черновик", zap.String("draftID", id), zap.Error(err))
	}
	return report, nil
}
