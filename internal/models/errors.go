package models

import (
	"errors"
	"fmt"
)

// ErrNotFound - случай с указанным id отсутствует в хранилище
var ErrNotFound = errors.New("emergency not found")

// ValidationError - нарушение инварианта входных данных.
// Field указывает первое нарушенное поле.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q %s", e.Field, e.Reason)
}

// InvalidTransitionError - запрошенный переход статуса не разрешен таблицей переходов
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}
