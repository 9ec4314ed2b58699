package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "fieldservice-admin/pkg/errors"
)

// Preferences — состояние UI, которое переживает перезагрузку страницы:
// последняя открытая запись и видимые колонки.
type Preferences struct {
	LastVisitedID string   `json:"lastVisitedId,omitempty"`
	VisibleFields []string `json:"visibleFields,omitempty"`
}

type PreferencesRepositoryInterface interface {
	Get(ctx context.Context, userID uint64, entity string) (*Preferences, error)
	Save(ctx context.Context, userID uint64, entity string, prefs *Preferences) error
}

type preferencesRepository struct {
	cache CacheRepositoryInterface
	ttl   time.Duration
}

func NewPreferencesRepository(cache CacheRepositoryInterface, ttl time.Duration) PreferencesRepositoryInterface {
	return &preferencesRepository{cache: cache, ttl: ttl}
}

func preferencesKey(userID uint64, entity string) string {
	return fmt.Sprintf("prefs:%d:%s", userID, entity)
}

// Get возвращает пустые настройки, если пользователь их ещё не сохранял.
func (r *preferencesRepository) Get(ctx context.Context, userID uint64, entity string) (*Preferences, error) {
	raw, err := r.cache.Get(ctx, preferencesKey(userID, entity))
	if errors.Is(err, apperrors.ErrNotFound) {
		return &Preferences{}, nil
	}
	if err != nil {
		return nil, err
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("повреждённые настройки %s: %w", entity, err)
	}
	return &prefs, nil
}

func (r *preferencesRepository) Save(ctx context.Context, userID uint64, entity string, prefs *Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек: %w", err)
	}
	return r.cache.Set(ctx, preferencesKey(userID, entity), data, r.ttl)
}
