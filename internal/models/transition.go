package models

// Status - статус жизненного цикла экстренного случая
type Status string

const (
	StatusReported   Status = "reported"
	StatusDispatched Status = "dispatched"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
)

// IsValid проверяет принадлежность значения закрытому набору статусов
func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusDispatched, StatusInProgress, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal сообщает, является ли статус конечным (без исходящих переходов)
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// ActiveStatuses - статусы, при которых случай считается находящимся в работе
var ActiveStatuses = []Status{StatusReported, StatusDispatched, StatusInProgress}

// transitions - полная таблица разрешенных переходов статусов.
// Единственная прямая цепочка: reported -> dispatched -> in-progress -> resolved.
// Отмена допустима из любого активного статуса. Конечные статусы без выходов.
var transitions = map[Status][]Status{
	StatusReported:   {StatusDispatched, StatusCancelled},
	StatusDispatched: {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusResolved, StatusCancelled},
	StatusResolved:   {},
	StatusCancelled:  {},
}

// CanTransition сообщает, разрешен ли переход from -> to.
// Чистая функция без побочных эффектов; переход в тот же статус запрещен.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
