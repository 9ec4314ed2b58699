package workflow

import (
	"fmt"
	"strings"
)

// Payload — поля формы как есть. Кроме обязательных полей и пар дат
// содержимое не интерпретируется, уходит в бэкенд без изменений.
type Payload map[string]interface{}

// String возвращает непустое строковое значение поля.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
