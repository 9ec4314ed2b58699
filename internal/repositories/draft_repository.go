package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/workflow"
	"fieldservice-admin/pkg/restclient"
)

const draftKeyPrefix = "draft:"

type DraftRepositoryInterface interface {
	Save(ctx context.Context, draft *workflow.Draft) error
	Find(ctx context.Context, id string) (*workflow.Draft, error)
	Delete(ctx context.Context, id string) error
}

type draftRepository struct {
	cache CacheRepositoryInterface
	ttl   time.Duration
}

func NewDraftRepository(cache CacheRepositoryInterface, ttl time.Duration) DraftRepositoryInterface {
	return &draftRepository{cache: cache, ttl: ttl}
}

// Save перезаписывает черновик целиком и продлевает TTL.
func (r *draftRepository) Save(ctx context.Context, draft *workflow.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("ошибка сериализации черновика: %w", err)
	}
	return r.cache.Set(ctx, draftKeyPrefix+draft.ID, data, r.ttl)
}

func (r *draftRepository) Find(ctx context.Context, id string) (*workflow.Draft, error) {
	raw, err := r.cache.Get(ctx, draftKeyPrefix+id)
	if err != nil {
		return nil, err
	}

	var draft workflow.Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("повреждённый черновик %s: %w", id, err)
	}
	if draft.Payload == nil {
		draft.Payload = workflow.Payload{}
	}
	if draft.Options == nil {
		draft.Options = map[string][]entities.Option{}
	}
	if draft.Selected == nil {
		draft.Selected = map[string][]restclient.ID{}
	}
	return &draft, nil
}

func (r *draftRepository) Delete(ctx context.Context, id string) error {
	return r.cache.Del(ctx, draftKeyPrefix+id)
}
