package restclient

import (
	"errors"
	"fmt"
)

// ErrMalformedCreateResponse — бэкенд ответил 2xx, но идентификатора в ответе нет.
var ErrMalformedCreateResponse = errors.New("The server response did not contain an identifier for the created record.")

// RequestError — ошибка обращения к бэкенду. Status == 0 означает сбой транспорта.
// Message показывается пользователю как есть.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// Describe — полное описание для логов.
func (e *RequestError) Describe() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %s: %v", e.Method, e.Path, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == 404
}
