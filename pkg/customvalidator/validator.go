package customvalidator

import (
	"reflect"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"

	"fieldservice-admin/internal/entities"
)

// EchoValidator — адаптер validator.Validate под echo.Validator.
type EchoValidator struct {
	validator *validator.Validate
}

func (cv *EchoValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New собирает валидатор со всеми нашими правилами и типами null.
func New() (*EchoValidator, error) {
	v := validator.New()
	if err := RegisterCustomValidations(v); err != nil {
		return nil, err
	}
	registerNullTypes(v)
	return &EchoValidator{validator: v}, nil
}

func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("entity_name", isKnownEntity); err != nil {
		return err
	}
	if err := v.RegisterValidation("date_ymd", isDate); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_before", isNotBefore); err != nil {
		return err
	}
	return nil
}

func isKnownEntity(fl validator.FieldLevel) bool {
	_, ok := entities.Lookup(fl.Field().String())
	return ok
}

// Пустое значение пропускаем: обязательность проверяет required.
func isDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, ok := entities.ParseDate(s)
	return ok
}

// not_before=LastMaintenance: дата в поле не раньше даты в соседнем поле.
func isNotBefore(fl validator.FieldLevel) bool {
	next, ok := entities.ParseDate(stringOf(fl.Field()))
	if !ok {
		return true
	}
	other := fl.Parent().FieldByName(fl.Param())
	if !other.IsValid() {
		return false
	}
	last, ok := entities.ParseDate(stringOf(other))
	if !ok {
		return true
	}
	return !next.Before(last)
}

func stringOf(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Ptr:
		if !v.IsNil() && v.Elem().Kind() == reflect.String {
			return v.Elem().String()
		}
	}
	if s, ok := v.Interface().(null.String); ok && s.Valid {
		return s.String
	}
	return ""
}

// registerNullTypes учит валидатор смотреть внутрь null.String, null.Int и т.д.
func registerNullTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.String); ok && val.Valid {
			return val.String
		}
		return nil
	}, null.String{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Int64); ok && val.Valid {
			return val.Int64
		}
		return nil
	}, null.Int64{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Time); ok && val.Valid {
			return val.Time
		}
		return nil
	}, null.Time{})
}
