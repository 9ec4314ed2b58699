package services

import (
	"fmt"
	"net/http"

	"fieldservice-admin/internal/entities"
	apperrors "fieldservice-admin/pkg/errors"
)

// lookupEntity — описание сущности по имени из URL.
func lookupEntity(name string) (entities.Definition, error) {
	def, ok := entities.Lookup(name)
	if !ok {
		return entities.Definition{}, apperrors.NewHttpError(
			http.StatusNotFound,
			fmt.Sprintf("Unknown entity %q.", name),
			apperrors.ErrUnknownEntity,
			nil,
		)
	}
	return def, nil
}
