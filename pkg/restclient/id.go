package restclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID — канонический идентификатор записи бэкенда. Бэкенд отдаёт его то
// числом, то строкой; в пути запросов он всё равно оказывается строкой.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON принимает id и числом, и строкой. null и пустая строка дают
// пустой id, его отклоняет валидация выбора.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	v, ok := scalarID(data)
	if !ok {
		return fmt.Errorf("некорректный идентификатор: %s", data)
	}
	*id = v
	return nil
}

// ExtractCreatedID — единственное место, которое знает, как бэкенд
// сообщает id созданной записи. Поддерживаются {"token": X}, {"id": X}
// и они же внутри {"data": {...}}; X — число или строка.
func ExtractCreatedID(raw json.RawMessage) (ID, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", ErrMalformedCreateResponse
	}

	for _, key := range []string{"token", "id"} {
		if v, ok := body[key]; ok {
			if id, ok := scalarID(v); ok {
				return id, nil
			}
		}
	}

	if nested, ok := body["data"]; ok {
		return ExtractCreatedID(nested)
	}
	return "", ErrMalformedCreateResponse
}

func scalarID(raw json.RawMessage) (ID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return ID(s), s != ""
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil || n == "" {
			return "", false
		}
		return ID(n.String()), true
	}
}
