package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/events"
	"fieldservice-admin/internal/workflow"
	"fieldservice-admin/pkg/eventbus"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/utils"
)

type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type recordDeleter interface {
	Delete(ctx context.Context, path string) error
}

// OptionsInvalidator сбрасывает закэшированные варианты выбора сущности.
type OptionsInvalidator interface {
	Invalidate(entity string)
}

type WorkflowServiceInterface interface {
	Create(ctx context.Context, entity string, payload dto.CreateRecordDTO) (*dto.WorkflowReportDTO, error)
	Run(ctx context.Context, req workflow.Request) (*dto.WorkflowReportDTO, error)
	Delete(ctx context.Context, entity, id string) error
}

type WorkflowService struct {
	runner  *workflow.Runner
	client  recordDeleter
	options OptionsInvalidator
	bus     EventPublisher
	logger  *zap.Logger
}

func NewWorkflowService(
	runner *workflow.Runner,
	client recordDeleter,
	options OptionsInvalidator,
	bus EventPublisher,
	logger *zap.Logger,
) WorkflowServiceInterface {
	return &WorkflowService{
		runner:  runner,
		client:  client,
		options: options,
		bus:     bus,
		logger:  logger,
	}
}

func (s *WorkflowService) Create(ctx context.Context, entity string, payload dto.CreateRecordDTO) (*dto.WorkflowReportDTO, error) {
	def, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}

	selections := make(map[string][]restclient.ID, len(payload.Selections))
	for assocType, ids := range payload.Selections {
		selections[assocType] = append([]restclient.ID(nil), ids...)
	}

	return s.Run(ctx, workflow.Request{
		Entity:     def,
		Payload:    workflow.Payload(payload.Payload),
		Selections: selections,
	})
}

// Run выполняет создание с привязками и публикует событие о завершении.
// Частичный сбой привязок ошибкой не считается.
func (s *WorkflowService) Run(ctx context.Context, req workflow.Request) (*dto.WorkflowReportDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	s.options.Invalidate(req.Entity.Name)
	s.bus.Publish(ctx, events.WorkflowCompletedEvent{RunID: runID, UserID: userID, Report: report})

	if !report.Complete() {
		s.logger.Warn("Запись создана, часть привязок не выполнена",
			zap.String("runID", runID.String()),
			zap.String("request_id", utils.RequestIDFromCtx(ctx)),
			zap.String("entity", report.Entity),
			zap.Int("failed", len(report.Failed())),
		)
	}
	return toReportDTO(runID, report), nil
}

func (s *WorkflowService) Delete(ctx context.Context, entity, id string) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	def, err := lookupEntity(entity)
	if err != nil {
		return err
	}

	if err := s.client.Delete(ctx, def.DeletePath(restclient.ID(id))); err != nil {
		return err
	}

	s.options.Invalidate(def.Name)
	s.bus.Publish(ctx, events.RecordDeletedEvent{UserID: userID, Entity: def.Name, ID: id})
	s.logger.Info("Запись удалена", zap.String("entity", def.Name), zap.String("id", id))
	return nil
}

func toOutcomeDTO(o workflow.LinkOutcome) dto.LinkOutcomeDTO {
	return dto.LinkOutcomeDTO{
		AssociationType: o.AssociationType,
		AssociationID:   o.AssociationID.String(),
		Path:            o.Path,
		OK:              o.OK(),
		Error:           o.ErrorMessage(),
	}
}

func toReportDTO(runID uuid.UUID, report *workflow.Report) *dto.WorkflowReportDTO {
	links := make([]dto.LinkOutcomeDTO, 0, len(report.Links))
	for _, o := range report.Links {
		links = append(links, toOutcomeDTO(o))
	}
	return &dto.WorkflowReportDTO{
		RunID:    runID.String(),
		Entity:   report.Entity,
		ParentID: report.ParentID.String(),
		Complete: report.Complete(),
		Links:    links,
	}
}
