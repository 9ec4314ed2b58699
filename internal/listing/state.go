package listing

import (
	"net/url"
	"sort"
	"strings"

	"fieldservice-admin/internal/entities"
)

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// State — состояние списка одной страницы. Query и Filters уходят на сервер,
// SortKey и Direction применяются только к уже полученным записям.
type State struct {
	Query     string            `json:"query"`
	Filters   map[string]string `json:"filters"`
	SortKey   string            `json:"sortKey"`
	Direction Direction         `json:"sortDirection"`
}

func NewState(def entities.Definition) State {
	return State{
		Filters:   make(map[string]string),
		SortKey:   def.DefaultSort,
		Direction: Ascending,
	}
}

// Toggle: тот же ключ меняет направление, новый ключ сортирует по возрастанию.
func (s *State) Toggle(key string) {
	if s.SortKey == key {
		if s.Direction == Ascending {
			s.Direction = Descending
		} else {
			s.Direction = Ascending
		}
		return
	}
	s.SortKey = key
	s.Direction = Ascending
}

func (s State) Clone() State {
	out := s
	out.Filters = make(map[string]string, len(s.Filters))
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	return out
}

// SearchParams — параметры запроса поиска. Пустой фильтр не передаётся:
// отсутствие параметра означает "без ограничения".
func SearchParams(s State) url.Values {
	params := url.Values{}
	if q := strings.TrimSpace(s.Query); q != "" {
		params.Set("q", q)
	}

	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := strings.TrimSpace(s.Filters[k]); v != "" {
			params.Set(k, v)
		}
	}
	return params
}
