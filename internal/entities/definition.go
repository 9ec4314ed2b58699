package entities

import (
	"fmt"
	"net/url"

	"fieldservice-admin/pkg/restclient"
)

// LinkRoute — форма пути для привязки пары (родитель, ассоциация).
type LinkRoute string

const (
	// PUT /<entity>/<parentId>/<associationId>
	LinkDirect LinkRoute = "direct"
	// PUT /<entity>/<associationType>/<parentId>/<associationId>
	LinkTyped LinkRoute = "typed"
)

type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// DeleteShape у разных сущностей бэкенда разная, унифицировать нельзя.
type DeleteShape string

const (
	DeleteByID     DeleteShape = "id"     // DELETE /<entity>/<id>
	DeleteByAction DeleteShape = "action" // DELETE /<entity>/delete/<id>
)

type Association struct {
	Type        string      `json:"type"`
	Label       string      `json:"label"`
	Entity      string      `json:"entity"`
	Route       LinkRoute   `json:"route"`
	Segment     string      `json:"segment,omitempty"`
	Cardinality Cardinality `json:"cardinality"`
	Inline      bool        `json:"inline"`
}

// LinkPath строит путь вызова привязки.
func (a Association) LinkPath(parentEntity string, parentID, associationID restclient.ID) string {
	p, c := url.PathEscape(parentID.String()), url.PathEscape(associationID.String())
	if a.Route == LinkDirect {
		return fmt.Sprintf("/%s/%s/%s", parentEntity, p, c)
	}
	segment := a.Segment
	if segment == "" {
		segment = a.Type
	}
	return fmt.Sprintf("/%s/%s/%s/%s", parentEntity, segment, p, c)
}

// Definition описывает сущность бэкенда: схему полей, связи и формы путей.
type Definition struct {
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Schema       Schema        `json:"schema"`
	DatePairs    []DatePair    `json:"-"`
	Associations []Association `json:"associations,omitempty"`
	Classifiers  []string      `json:"classifiers,omitempty"`
	FavoriteKey  string        `json:"favoriteKey,omitempty"`
	DefaultSort  string        `json:"defaultSort"`
	DisplayKey   string        `json:"displayKey"`
	Delete       DeleteShape   `json:"-"`
}

func (d Definition) CreatePath() string { return "/" + d.Name + "/add" }

func (d Definition) SearchPath() string { return "/" + d.Name + "/search" }

// ListPath — полный список, из него строятся варианты выбора {id, displayName}.
func (d Definition) ListPath() string { return "/" + d.Name }

func (d Definition) DeletePath(id restclient.ID) string {
	if d.Delete == DeleteByAction {
		return fmt.Sprintf("/%s/delete/%s", d.Name, url.PathEscape(id.String()))
	}
	return fmt.Sprintf("/%s/%s", d.Name, url.PathEscape(id.String()))
}

func (d Definition) Association(assocType string) (Association, bool) {
	for _, a := range d.Associations {
		if a.Type == assocType {
			return a, true
		}
	}
	return Association{}, false
}

func (d Definition) IsClassifier(key string) bool {
	for _, c := range d.Classifiers {
		if c == key {
			return true
		}
	}
	return false
}

func (d Definition) RequiredFields() []string {
	var keys []string
	for _, f := range d.Schema.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Option — вариант выбора в форме.
type Option struct {
	ID          restclient.ID `json:"id"`
	DisplayName string        `json:"displayName"`
}
