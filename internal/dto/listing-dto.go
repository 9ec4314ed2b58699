package dto

// ListQueryDTO — параметры списка. Остальные query-параметры считаются
// классификаторами и проверяются по описанию сущности.
type ListQueryDTO struct {
	Query     string `query:"q"`
	SortKey   string `query:"sortKey"`
	Direction string `query:"sortDirection" validate:"omitempty,oneof=ascending descending"`
	Format    string `query:"format" validate:"omitempty,oneof=json xlsx"`
}

type ListResultDTO struct {
	Entity        string                   `json:"entity"`
	Query         string                   `json:"query"`
	Filters       map[string]string        `json:"filters"`
	SortKey       string                   `json:"sortKey"`
	SortDirection string                   `json:"sortDirection"`
	Total         int                      `json:"total"`
	Records       []map[string]interface{} `json:"records"`
}
