package listing

import "errors"

var (
	ErrUnknownFilter  = errors.New("неизвестный фильтр")
	ErrUnknownSortKey = errors.New("неизвестное поле сортировки")
)
