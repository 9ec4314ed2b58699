package workflow

import (
	"fmt"
	"strings"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/pkg/restclient"
)

// ValidationError — ошибка конкретного поля формы. До бэкенда такие
// данные не доходят.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, " ")
}

// ByField — для ответа UI в виде {field: message}.
func (v ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, exists := out[e.Field]; !exists {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Validate проверяет полезную нагрузку родителя: обязательные поля не
// пустые, в каждой паре дат next >= last. Возвращает nil, если всё в порядке.
func Validate(def entities.Definition, payload Payload) error {
	var errs ValidationErrors

	for _, f := range def.Schema.Fields {
		if !f.Required {
			continue
		}
		if isBlank(payload[f.Key]) {
			errs = append(errs, &ValidationError{Field: f.Key, Message: fmt.Sprintf("%s is required.", f.Label)})
		}
	}

	for _, pair := range def.DatePairs {
		lastRaw, lastOK := payload.String(pair.Last)
		nextRaw, nextOK := payload.String(pair.Next)
		if !lastOK || !nextOK {
			continue
		}

		last, ok := entities.ParseDate(lastRaw)
		if !ok {
			errs = append(errs, &ValidationError{Field: pair.Last, Message: "Invalid date."})
			continue
		}
		next, ok := entities.ParseDate(nextRaw)
		if !ok {
			errs = append(errs, &ValidationError{Field: pair.Next, Message: "Invalid date."})
			continue
		}
		if next.Before(last) {
			errs = append(errs, &ValidationError{Field: pair.Next, Message: pair.Message})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateSelections(def entities.Definition, selections map[string][]restclient.ID) (map[string][]restclient.ID, error) {
	var errs ValidationErrors
	clean := make(map[string][]restclient.ID, len(selections))

	for assocType, ids := range selections {
		assoc, ok := def.Association(assocType)
		if !ok {
			errs = append(errs, &ValidationError{Field: assocType, Message: fmt.Sprintf("Unknown association %q for %s.", assocType, def.Name)})
			continue
		}

		seen := make(map[restclient.ID]struct{}, len(ids))
		unique := make([]restclient.ID, 0, len(ids))
		for _, id := range ids {
			id = restclient.ID(strings.TrimSpace(id.String()))
			if id == "" {
				errs = append(errs, &ValidationError{Field: assocType, Message: fmt.Sprintf("%s contains an empty id.", assoc.Label)})
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			unique = append(unique, id)
		}

		if assoc.Cardinality == entities.One && len(unique) > 1 {
			errs = append(errs, &ValidationError{Field: assocType, Message: fmt.Sprintf("Only one %s can be selected.", strings.ToLower(assoc.Label))})
			continue
		}
		if len(unique) > 0 {
			clean[assocType] = unique
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
