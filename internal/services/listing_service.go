package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/listing"
	"fieldservice-admin/internal/repositories"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

const exportSheet = "Records"

type ListingServiceInterface interface {
	List(ctx context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*dto.ListResultDTO, error)
	Export(ctx context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*excelize.File, string, error)
	NewLiveView(ctx context.Context, entity string, onChange func(listing.Snapshot)) (*listing.View, error)
}

type ListingService struct {
	searcher    listing.Searcher
	preferences repositories.PreferencesRepositoryInterface
	debounce    time.Duration
	logger      *zap.Logger
}

func NewListingService(
	searcher listing.Searcher,
	preferences repositories.PreferencesRepositoryInterface,
	debounce time.Duration,
	logger *zap.Logger,
) ListingServiceInterface {
	return &ListingService{
		searcher:    searcher,
		preferences: preferences,
		debounce:    debounce,
		logger:      logger,
	}
}

// buildState собирает состояние списка из query-параметров. Фильтровать можно
// только по классификаторам сущности, сортировать — только по полям схемы.
func buildState(def entities.Definition, query dto.ListQueryDTO, filters url.Values) (listing.State, error) {
	state := listing.NewState(def)
	state.Query = query.Query

	for key, values := range filters {
		if !def.IsClassifier(key) {
			return state, apperrors.NewBadRequestError(fmt.Sprintf("Unknown filter %q for %s.", key, def.Name))
		}
		if len(values) > 0 {
			state.Filters[key] = values[0]
		}
	}

	if query.SortKey != "" {
		if !def.Schema.Has(query.SortKey) {
			return state, apperrors.NewBadRequestError(fmt.Sprintf("Unknown sort key %q for %s.", query.SortKey, def.Name))
		}
		state.SortKey = query.SortKey
	}
	if query.Direction != "" {
		state.Direction = listing.Direction(query.Direction)
	}
	return state, nil
}

func (s *ListingService) fetch(ctx context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (entities.Definition, listing.State, []listing.Record, error) {
	def, err := lookupEntity(entity)
	if err != nil {
		return def, listing.State{}, nil, err
	}
	state, err := buildState(def, query, filters)
	if err != nil {
		return def, state, nil, err
	}

	records, err := s.searcher.Search(ctx, def, listing.SearchParams(state))
	if err != nil {
		return def, state, nil, err
	}
	return def, state, listing.Sorted(records, def.Schema, def.FavoriteKey, state.SortKey, state.Direction), nil
}

func (s *ListingService) List(ctx context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*dto.ListResultDTO, error) {
	def, state, records, err := s.fetch(ctx, entity, query, filters)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		items = append(items, r)
	}
	return &dto.ListResultDTO{
		Entity:        def.Name,
		Query:         state.Query,
		Filters:       state.Filters,
		SortKey:       state.SortKey,
		SortDirection: string(state.Direction),
		Total:         len(items),
		Records:       items,
	}, nil
}

// Export выгружает отсортированный список в xlsx. Колонки — видимые поля из
// настроек пользователя, если их нет — все поля схемы.
func (s *ListingService) Export(ctx context.Context, entity string, query dto.ListQueryDTO, filters url.Values) (*excelize.File, string, error) {
	def, _, records, err := s.fetch(ctx, entity, query, filters)
	if err != nil {
		return nil, "", err
	}

	fields := def.Schema.Fields
	if userID, err := utils.GetUserIDFromCtx(ctx); err == nil {
		prefs, err := s.preferences.Get(ctx, userID, def.Name)
		if err != nil {
			s.logger.Warn("Настройки недоступны, выгружаются все поля", zap.Error(err))
		} else if len(prefs.VisibleFields) > 0 {
			fields = visibleFields(def.Schema, prefs.VisibleFields)
		}
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", err
	}

	header := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		header = append(header, field.Label)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, "", err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(fields), 1)
		_ = f.SetCellStyle(exportSheet, "A1", last, style)
	}

	for i, rec := range records {
		row := make([]interface{}, 0, len(fields))
		for _, field := range fields {
			row = append(row, exportCell(field, rec[field.Key]))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", def.Name, time.Now().Format("2006-01-02"))
	return f, fileName, nil
}

func visibleFields(schema entities.Schema, keys []string) []entities.Field {
	fields := make([]entities.Field, 0, len(keys))
	for _, k := range keys {
		if f, ok := schema.Field(k); ok {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return schema.Fields
	}
	return fields
}

func exportCell(field entities.Field, v interface{}) interface{} {
	if v == nil {
		return ""
	}
	switch field.Type {
	case entities.FieldDate:
		s, _ := v.(string)
		if t, ok := entities.ParseDate(s); ok {
			return t.Format("02.01.2006")
		}
		return s
	case entities.FieldBool:
		if b, ok := v.(bool); ok && b {
			return "Yes"
		}
		return "No"
	default:
		return v
	}
}

// NewLiveView — список для WebSocket-сессии: дебаунс поиска, отбрасывание
// устаревших ответов. Загрузку вызывающий запускает сам.
func (s *ListingService) NewLiveView(ctx context.Context, entity string, onChange func(listing.Snapshot)) (*listing.View, error) {
	def, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}
	return listing.NewView(ctx, def, s.searcher,
		listing.WithDebounce(s.debounce),
		listing.WithLogger(s.logger.With(zap.String("entity", def.Name))),
		listing.OnChange(onChange),
	), nil
}
