package listing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fieldservice-admin/internal/entities"
)

// Record — запись списка в том виде, в каком её вернул бэкенд.
type Record map[string]interface{}

func (r Record) ID() string {
	switch v := r["id"].(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Compare — трёхзначное сравнение по ключу: строки без учёта регистра, даты
// как моменты времени. Пустые и нераспознанные значения считаются большими.
func Compare(schema entities.Schema, key string, a, b Record) int {
	typ := entities.FieldString
	if f, ok := schema.Field(key); ok {
		typ = f.Type
	}

	va, okA := normalize(typ, a[key])
	vb, okB := normalize(typ, b[key])
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return compareNormalized(va, vb)
}

// Sort упорядочивает записи на месте, сохраняя порядок равных.
// Избранные всегда идут первыми, независимо от направления сортировки.
func Sort(records []Record, schema entities.Schema, favoriteKey, key string, dir Direction) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if favoriteKey != "" {
			fa, fb := truthy(a[favoriteKey]), truthy(b[favoriteKey])
			if fa != fb {
				return fa
			}
		}
		if key == "" {
			return false
		}

		typ := entities.FieldString
		if f, ok := schema.Field(key); ok {
			typ = f.Type
		}
		_, okA := normalize(typ, a[key])
		_, okB := normalize(typ, b[key])
		if okA != okB {
			// пустые в конце и при обратном порядке
			return okA
		}

		c := Compare(schema, key, a, b)
		if dir == Descending {
			return c > 0
		}
		return c < 0
	})
}

// Sorted — копия, исходный порядок ответа сервера не трогается.
func Sorted(records []Record, schema entities.Schema, favoriteKey, key string, dir Direction) []Record {
	out := append([]Record(nil), records...)
	Sort(out, schema, favoriteKey, key, dir)
	return out
}

func normalize(typ entities.FieldType, v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	switch typ {
	case entities.FieldNumber:
		f, ok := toFloat(v)
		return f, ok
	case entities.FieldDate:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		t, ok := entities.ParseDate(s)
		if !ok {
			return nil, false
		}
		return t.UnixNano(), true
	case entities.FieldBool:
		return truthy(v), true
	default:
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			return nil, false
		}
		return strings.ToLower(s), true
	}
}

func compareNormalized(a, b interface{}) int {
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	case float64:
		return b != 0
	}
	return false
}
