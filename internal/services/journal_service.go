package services

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/internal/workflow"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
)

const (
	defaultJournalLimit = 50
	journalDateLayout   = "2006-01-02"
)

type JournalServiceInterface interface {
	Record(ctx context.Context, runID uuid.UUID, userID uint64, report *workflow.Report) error
	ListFailures(ctx context.Context, filter dto.LinkFailureFilterDTO) ([]dto.LinkFailureDTO, uint64, error)
	RetryFailure(ctx context.Context, id uint64) (*dto.LinkOutcomeDTO, error)
}

type JournalService struct {
	repo   repositories.JournalRepositoryInterface
	tx     repositories.TxManagerInterface
	runner *workflow.Runner
	logger *zap.Logger
	now    func() time.Time
}

func NewJournalService(
	repo repositories.JournalRepositoryInterface,
	tx repositories.TxManagerInterface,
	runner *workflow.Runner,
	logger *zap.Logger,
) JournalServiceInterface {
	return &JournalService{
		repo:   repo,
		tx:     tx,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Record сохраняет прогон и его неудавшиеся привязки одной транзакцией.
func (s *JournalService) Record(ctx context.Context, runID uuid.UUID, userID uint64, report *workflow.Report) error {
	failed := report.Failed()
	run := &entities.WorkflowRun{
		ID:          runID,
		Entity:      report.Entity,
		ParentID:    report.ParentID.String(),
		UserID:      userID,
		LinksTotal:  len(report.Links),
		LinksFailed: len(failed),
	}

	now := s.now()
	failures := make([]entities.LinkFailure, 0, len(failed))
	for _, o := range failed {
		failures = append(failures, entities.LinkFailure{
			RunID:           runID,
			Entity:          report.Entity,
			ParentID:        report.ParentID.String(),
			AssociationType: o.AssociationType,
			AssociationID:   o.AssociationID.String(),
			Path:            o.Path,
			Error:           o.ErrorMessage(),
			LastAttemptAt:   null.TimeFrom(now),
		})
	}

	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repo.SaveRun(ctx, tx, run); err != nil {
			return err
		}
		return s.repo.SaveFailures(ctx, tx, failures)
	})
	if err != nil {
		s.logger.Error("Не удалось записать прогон в журнал", zap.String("runID", runID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *JournalService) ListFailures(ctx context.Context, filter dto.LinkFailureFilterDTO) ([]dto.LinkFailureDTO, uint64, error) {
	repoFilter := repositories.JournalFilter{
		Entity:          filter.Entity,
		IncludeResolved: filter.IncludeResolved,
		Limit:           filter.Limit,
	}
	if repoFilter.Limit == 0 {
		repoFilter.Limit = defaultJournalLimit
	}
	if filter.Page > 1 {
		repoFilter.Offset = (filter.Page - 1) * repoFilter.Limit
	}

	var err error
	if repoFilter.From, err = parseJournalDate(filter.From); err != nil {
		return nil, 0, err
	}
	if repoFilter.To, err = parseJournalDate(filter.To); err != nil {
		return nil, 0, err
	}

	items, total, err := s.repo.ListFailures(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.LinkFailureDTO, 0, len(items))
	for i := range items {
		result = append(result, toLinkFailureDTO(&items[i]))
	}
	return result, total, nil
}

// RetryFailure повторяет привязку из журнала. Успех закрывает запись,
// неудача увеличивает счётчик попыток и сохраняет новое сообщение.
func (s *JournalService) RetryFailure(ctx context.Context, id uint64) (*dto.LinkOutcomeDTO, error) {
	failure, err := s.repo.FindFailure(ctx, id)
	if err != nil {
		return nil, err
	}
	if failure.Resolved() {
		return nil, apperrors.NewBadRequestError("This link has already been restored.")
	}

	def, err := lookupEntity(failure.Entity)
	if err != nil {
		return nil, err
	}

	outcome, err := s.runner.RetryLink(ctx, def, restclient.ID(failure.ParentID), workflow.LinkOutcome{
		AssociationType: failure.AssociationType,
		AssociationID:   restclient.ID(failure.AssociationID),
		Path:            failure.Path,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	if outcome.OK() {
		err = s.repo.MarkResolved(ctx, id, now)
	} else {
		err = s.repo.RecordAttempt(ctx, id, outcome.ErrorMessage(), now)
	}
	// запись уже закрыл параллельный повтор
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Info("Связь уже восстановлена другим повтором", zap.Uint64("failureID", id))
		return nil, apperrors.NewBadRequestError("This link has already been restored.")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Повтор привязки",
		zap.Uint64("failureID", id),
		zap.String("path", outcome.Path),
		zap.Bool("ok", outcome.OK()),
	)
	result := toOutcomeDTO(outcome)
	return &result, nil
}

func parseJournalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(journalDateLayout, s)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid date.")
	}
	return &t, nil
}

func toLinkFailureDTO(f *entities.LinkFailure) dto.LinkFailureDTO {
	out := dto.LinkFailureDTO{
		ID:              f.ID,
		RunID:           f.RunID.String(),
		Entity:          f.Entity,
		ParentID:        f.ParentID,
		AssociationType: f.AssociationType,
		AssociationID:   f.AssociationID,
		Path:            f.Path,
		Error:           f.Error,
		Attempts:        f.Attempts,
		CreatedAt:       f.CreatedAt,
	}
	if f.LastAttemptAt.Valid {
		t := f.LastAttemptAt.Time
		out.LastAttemptAt = &t
	}
	if f.ResolvedAt.Valid {
		t := f.ResolvedAt.Time
		out.ResolvedAt = &t
	}
	return out
}
