package workflow

import (
	"fmt"
	"strings"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/pkg/restclient"
)

// Draft — незаконченная форма создания родителя: загруженные варианты по
// каждой ассоциации и текущий выбор. Хранится между запросами UI.
type Draft struct {
	ID       string                       `json:"id"`
	Entity   string                       `json:"entity"`
	UserID   uint64                       `json:"userId"`
	Payload  Payload                      `json:"payload"`
	Options  map[string][]entities.Option `json:"options"`
	Selected map[string][]restclient.ID   `json:"selected"`
}

func NewDraft(id string, def entities.Definition, userID uint64) *Draft {
	return &Draft{
		ID:       id,
		Entity:   def.Name,
		UserID:   userID,
		Payload:  Payload{},
		Options:  make(map[string][]entities.Option),
		Selected: make(map[string][]restclient.ID),
	}
}

func (d *Draft) SetOptions(assocType string, options []entities.Option) {
	d.Options[assocType] = options
}

func (d *Draft) hasOption(assocType string, id restclient.ID) bool {
	for _, o := range d.Options[assocType] {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Select заменяет выбор по ассоциации. Выбирать можно только из загруженных
// вариантов; для связи "один" допускается не больше одного id.
func (d *Draft) Select(def entities.Definition, assocType string, ids []restclient.ID) error {
	assoc, ok := def.Association(assocType)
	if !ok {
		return &ValidationError{Field: assocType, Message: fmt.Sprintf("Unknown association %q for %s.", assocType, def.Name)}
	}
	if assoc.Cardinality == entities.One && len(ids) > 1 {
		return &ValidationError{Field: assocType, Message: fmt.Sprintf("Only one %s can be selected.", strings.ToLower(assoc.Label))}
	}
	for _, id := range ids {
		if !d.hasOption(assocType, id) {
			return &ValidationError{Field: assocType, Message: fmt.Sprintf("%s %s is not among the available options.", assoc.Label, id)}
		}
	}
	d.Selected[assocType] = append([]restclient.ID(nil), ids...)
	return nil
}

// Deselect снимает один id с выбора. Отсутствующий id не ошибка.
func (d *Draft) Deselect(def entities.Definition, assocType string, id restclient.ID) error {
	if _, ok := def.Association(assocType); !ok {
		return &ValidationError{Field: assocType, Message: fmt.Sprintf("Unknown association %q for %s.", assocType, def.Name)}
	}
	ids := d.Selected[assocType]
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	d.Selected[assocType] = out
	return nil
}

// AddOption — ассоциация, только что созданная во вложенном окне. Попадает и в
// варианты, и в выбор; привязка произойдёт при отправке формы.
func (d *Draft) AddOption(def entities.Definition, assocType string, option entities.Option) error {
	assoc, ok := def.Association(assocType)
	if !ok {
		return &ValidationError{Field: assocType, Message: fmt.Sprintf("Unknown association %q for %s.", assocType, def.Name)}
	}
	if !d.hasOption(assocType, option.ID) {
		d.Options[assocType] = append(d.Options[assocType], option)
	}
	if assoc.Cardinality == entities.One {
		d.Selected[assocType] = []restclient.ID{option.ID}
		return nil
	}
	for _, id := range d.Selected[assocType] {
		if id == option.ID {
			return nil
		}
	}
	d.Selected[assocType] = append(d.Selected[assocType], option.ID)
	return nil
}

func (d *Draft) Request(def entities.Definition) Request {
	selections := make(map[string][]restclient.ID, len(d.Selected))
	for k, ids := range d.Selected {
		if len(ids) > 0 {
			selections[k] = append([]restclient.ID(nil), ids...)
		}
	}
	return Request{Entity: def, Payload: d.Payload.Clone(), Selections: selections}
}
