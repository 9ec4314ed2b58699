package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldservice-admin/internal/entities"
	apperrors "fieldservice-admin/pkg/errors"
)

const (
	workflowRunTable  = "workflow_runs"
	linkFailureTable  = "link_failures"
	linkFailureFields = "id, run_id, entity, parent_id, association_type, association_id, path, error, attempts, last_attempt_at, resolved_at, created_at"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// JournalFilter — условия выборки журнала сбоев.
type JournalFilter struct {
	Entity          string
	From            *time.Time
	To              *time.Time
	IncludeResolved bool
	Limit           uint64
	Offset          uint64
}

type JournalRepositoryInterface interface {
	SaveRun(ctx context.Context, tx pgx.Tx, run *entities.WorkflowRun) error
	SaveFailures(ctx context.Context, tx pgx.Tx, failures []entities.LinkFailure) error
	FindFailure(ctx context.Context, id uint64) (*entities.LinkFailure, error)
	ListFailures(ctx context.Context, filter JournalFilter) ([]entities.LinkFailure, uint64, error)
	MarkResolved(ctx context.Context, id uint64, at time.Time) error
	RecordAttempt(ctx context.Context, id uint64, errMsg string, at time.Time) error
}

type journalRepository struct {
	storage *pgxpool.Pool
}

func NewJournalRepository(storage *pgxpool.Pool) JournalRepositoryInterface {
	return &journalRepository{storage: storage}
}

func (r *journalRepository) SaveRun(ctx context.Context, tx pgx.Tx, run *entities.WorkflowRun) error {
	query, args, err := psql.Insert(workflowRunTable).
		Columns("id", "entity", "parent_id", "user_id", "links_total", "links_failed").
		Values(run.ID, run.Entity, run.ParentID, run.UserID, run.LinksTotal, run.LinksFailed).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса SaveRun: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&run.CreatedAt); err != nil {
		return fmt.Errorf("ошибка сохранения прогона: %w", err)
	}
	return nil
}

func (r *journalRepository) SaveFailures(ctx context.Context, tx pgx.Tx, failures []entities.LinkFailure) error {
	if len(failures) == 0 {
		return nil
	}

	builder := psql.Insert(linkFailureTable).
		Columns("run_id", "entity", "parent_id", "association_type", "association_id", "path", "error", "last_attempt_at")
	for _, f := range failures {
		builder = builder.Values(f.RunID, f.Entity, f.ParentID, f.AssociationType, f.AssociationID, f.Path, f.Error, f.LastAttemptAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса SaveFailures: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка сохранения сбоев привязки: %w", err)
	}
	return nil
}

func (r *journalRepository) scanFailure(row pgx.Row) (*entities.LinkFailure, error) {
	var f entities.LinkFailure
	err := row.Scan(
		&f.ID, &f.RunID, &f.Entity, &f.ParentID, &f.AssociationType, &f.AssociationID,
		&f.Path, &f.Error, &f.Attempts, &f.LastAttemptAt, &f.ResolvedAt, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования строки link_failures: %w", err)
	}
	return &f, nil
}

func (r *journalRepository) FindFailure(ctx context.Context, id uint64) (*entities.LinkFailure, error) {
	query, args, err := psql.Select(linkFailureFields).From(linkFailureTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса FindFailure: %w", err)
	}
	return r.scanFailure(r.storage.QueryRow(ctx, query, args...))
}

func applyJournalFilter(b sq.SelectBuilder, filter JournalFilter) sq.SelectBuilder {
	if filter.Entity != "" {
		b = b.Where(sq.Eq{"entity": filter.Entity})
	}
	if filter.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(sq.Lt{"created_at": filter.To.AddDate(0, 0, 1)})
	}
	if !filter.IncludeResolved {
		b = b.Where(sq.Eq{"resolved_at": nil})
	}
	return b
}

func (r *journalRepository) ListFailures(ctx context.Context, filter JournalFilter) ([]entities.LinkFailure, uint64, error) {
	countQuery, countArgs, err := applyJournalFilter(psql.Select("COUNT(*)").From(linkFailureTable), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета link_failures: %w", err)
	}
	if total == 0 {
		return []entities.LinkFailure{}, 0, nil
	}

	builder := applyJournalFilter(psql.Select(linkFailureFields).From(linkFailureTable), filter).
		OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса ListFailures: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка link_failures: %w", err)
	}
	defer rows.Close()

	failures := make([]entities.LinkFailure, 0)
	for rows.Next() {
		f, err := r.scanFailure(rows)
		if err != nil {
			return nil, 0, err
		}
		failures = append(failures, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации по link_failures: %w", err)
	}
	return failures, total, nil
}

func (r *journalRepository) MarkResolved(ctx context.Context, id uint64, at time.Time) error {
	query, args, err := psql.Update(linkFailureTable).
		Set("resolved_at", at).
		Set("last_attempt_at", at).
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id, "resolved_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса MarkResolved: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

func (r *journalRepository) RecordAttempt(ctx context.Context, id uint64, errMsg string, at time.Time) error {
	query, args, err := psql.Update(linkFailureTable).
		Set("error", errMsg).
		Set("last_attempt_at", at).
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id, "resolved_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса RecordAttempt: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

func (r *journalRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления link_failures: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
