package entities

import (
	"strings"
	"time"
)

// FieldType — как сравнивать и показывать значение поля.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldBool   FieldType = "bool"
)

// Field — одно известное поле сущности. Видимость колонок и сортировка
// работают только по таким полям, а не по произвольным ключам JSON.
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
}

type Schema struct {
	Fields []Field `json:"fields"`
}

func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) Has(key string) bool {
	_, ok := s.Field(key)
	return ok
}

func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// DatePair — пара дат, где next не может быть раньше last.
type DatePair struct {
	Last    string
	Next    string
	Message string
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate понимает форматы, которые бэкенд и форма присылают в полях дат.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
