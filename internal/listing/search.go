package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/pkg/restclient"
)

// Searcher выполняет серверный поиск. Фильтрация по q и классификаторам
// целиком на стороне бэкенда.
type Searcher interface {
	Search(ctx context.Context, def entities.Definition, params url.Values) ([]Record, error)
}

type upstreamGetter interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

type RestSearcher struct {
	client upstreamGetter
}

func NewRestSearcher(client *restclient.Client) *RestSearcher {
	return &RestSearcher{client: client}
}

func (s *RestSearcher) Search(ctx context.Context, def entities.Definition, params url.Values) ([]Record, error) {
	raw, err := s.client.Get(ctx, def.SearchPath(), params)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(raw)
}

// DecodeRecords принимает и голый массив, и массив в поле data.
func DecodeRecords(raw json.RawMessage) ([]Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Record{}, nil
	}

	if raw[0] == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("ответ поиска: %w", err)
		}
		return DecodeRecords(wrapped.Data)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("ответ поиска: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
