package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"fieldservice-admin/internal/entities"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
)

var tracer = otel.Tracer("workflow")

// Backend — то, что нужно сценарию от REST-клиента.
type Backend interface {
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
}

// Request — создать родителя и привязать к нему выбранные ассоциации.
// Selections сгруппированы по типу ассоциации.
type Request struct {
	Entity     entities.Definition
	Payload    Payload
	Selections map[string][]restclient.ID
}

type LinkOutcome struct {
	AssociationType string        `json:"associationType"`
	AssociationID   restclient.ID `json:"associationId"`
	Path            string        `json:"path"`
	Err             error         `json:"-"`
}

func (o LinkOutcome) OK() bool { return o.Err == nil }

func (o LinkOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Report — итог прогона. Родитель создан всегда, когда Report вернулся;
// часть привязок может не пройти, отката нет.
type Report struct {
	Entity   string        `json:"entity"`
	ParentID restclient.ID `json:"parentId"`
	Links    []LinkOutcome `json:"links"`
}

func (r *Report) Linked() []LinkOutcome { return r.filter(true) }

func (r *Report) Failed() []LinkOutcome { return r.filter(false) }

// Complete — все привязки прошли.
func (r *Report) Complete() bool { return len(r.Failed()) == 0 }

func (r *Report) filter(ok bool) []LinkOutcome {
	var out []LinkOutcome
	for _, l := range r.Links {
		if l.OK() == ok {
			out = append(out, l)
		}
	}
	return out
}

type Runner struct {
	backend Backend
	logger  *zap.Logger
}

func NewRunner(backend Backend, logger *zap.Logger) *Runner {
	return &Runner{backend: backend, logger: logger}
}

// Run: валидация → POST родителя → id из ответа → все привязки параллельно.
// Ошибка возвращается только до создания родителя (валидация, сбой POST,
// ответ без id); сбои привязок попадают в Report.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Run")
	defer span.End()
	span.SetAttributes(attribute.String("entity", req.Entity.Name))

	if err := Validate(req.Entity, req.Payload); err != nil {
		return nil, err
	}
	selections, err := validateSelections(req.Entity, req.Selections)
	if err != nil {
		return nil, err
	}

	raw, err := r.backend.Post(ctx, req.Entity.CreatePath(), req.Payload)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("Не удалось создать запись", zap.String("entity", req.Entity.Name), zap.Error(err))
		return nil, err
	}

	parentID, err := restclient.ExtractCreatedID(raw)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("Ответ на создание без идентификатора",
			zap.String("entity", req.Entity.Name), zap.ByteString("body", raw))
		return nil, err
	}
	span.SetAttributes(attribute.String("parent_id", parentID.String()))

	report := &Report{Entity: req.Entity.Name, ParentID: parentID}
	report.Links = r.linkAll(ctx, req.Entity, parentID, selections)

	failed := len(report.Failed())
	span.SetAttributes(attribute.Int("links.total", len(report.Links)), attribute.Int("links.failed", failed))
	r.logger.Info("Запись создана",
		zap.String("entity", req.Entity.Name),
		zap.String("id", parentID.String()),
		zap.Int("links", len(report.Links)),
		zap.Int("failed", failed),
	)
	return report, nil
}

type linkJob struct {
	assoc entities.Association
	id    restclient.ID
}

// linkAll отправляет все привязки разом и ждёт, пока завершатся все.
// Сбой одной привязки остальные не отменяет.
func (r *Runner) linkAll(ctx context.Context, def entities.Definition, parentID restclient.ID, selections map[string][]restclient.ID) []LinkOutcome {
	jobs := make([]linkJob, 0)
	for _, assoc := range def.Associations {
		for _, id := range selections[assoc.Type] {
			jobs = append(jobs, linkJob{assoc: assoc, id: id})
		}
	}

	outcomes := make([]LinkOutcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job linkJob) {
			defer wg.Done()
			outcomes[i] = r.Link(ctx, def, job.assoc, parentID, job.id)
		}(i, job)
	}
	wg.Wait()

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].AssociationType < outcomes[j].AssociationType
	})
	return outcomes
}

// Link — один вызов привязки пары. Используется и при повторе из журнала.
func (r *Runner) Link(ctx context.Context, def entities.Definition, assoc entities.Association, parentID, associationID restclient.ID) LinkOutcome {
	path := assoc.LinkPath(def.Name, parentID, associationID)
	outcome := LinkOutcome{AssociationType: assoc.Type, AssociationID: associationID, Path: path}

	if _, err := r.backend.Put(ctx, path, nil); err != nil {
		outcome.Err = err
		r.logger.Warn("Привязка не выполнена",
			zap.String("entity", def.Name),
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return outcome
}

// CreateAssociation — создание ассоциации прямо из формы родителя
// (вложенное окно "Add Location" и т.п.). Привязки здесь нет: новая запись
// попадает в черновик и привяжется при отправке родителя.
func (r *Runner) CreateAssociation(ctx context.Context, def entities.Definition, payload Payload) (entities.Option, error) {
	if err := Validate(def, payload); err != nil {
		return entities.Option{}, err
	}

	raw, err := r.backend.Post(ctx, def.CreatePath(), payload)
	if err != nil {
		return entities.Option{}, err
	}
	id, err := restclient.ExtractCreatedID(raw)
	if err != nil {
		return entities.Option{}, err
	}

	display, _ := payload.String(def.DisplayKey)
	if display == "" {
		display = fmt.Sprintf("%s #%s", def.Label, id)
	}
	return entities.Option{ID: id, DisplayName: display}, nil
}

// RetryLink повторяет неудавшуюся привязку из отчёта или журнала.
func (r *Runner) RetryLink(ctx context.Context, def entities.Definition, parentID restclient.ID, outcome LinkOutcome) (LinkOutcome, error) {
	assoc, ok := def.Association(outcome.AssociationType)
	if !ok {
		return outcome, fmt.Errorf("ассоциация %s/%s: %w", def.Name, outcome.AssociationType, apperrors.ErrUnknownEntity)
	}
	return r.Link(ctx, def, assoc, parentID, outcome.AssociationID), nil
}
