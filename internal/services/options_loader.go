package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/listing"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/pkg/restclient"
)

type upstreamGetter interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// NewOptionsLoader строит варианты выбора {id, displayName} из полного списка
// сущности на бэкенде.
func NewOptionsLoader(client upstreamGetter) repositories.OptionsLoader {
	return func(ctx context.Context, entity string) ([]entities.Option, error) {
		def, err := lookupEntity(entity)
		if err != nil {
			return nil, err
		}

		raw, err := client.Get(ctx, def.ListPath(), nil)
		if err != nil {
			return nil, err
		}
		records, err := listing.DecodeRecords(raw)
		if err != nil {
			return nil, err
		}
		return recordsToOptions(def, records), nil
	}
}

func recordsToOptions(def entities.Definition, records []listing.Record) []entities.Option {
	options := make([]entities.Option, 0, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		name, _ := rec[def.DisplayKey].(string)
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("%s #%s", def.Label, id)
		}
		options = append(options, entities.Option{ID: restclient.ID(id), DisplayName: name})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].DisplayName) < strings.ToLower(options[j].DisplayName)
	})
	return options
}
