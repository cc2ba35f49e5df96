package models

import (
	"time"

	"github.com/google/uuid"
)

// EmergencyType - закрытый набор типов экстренных случаев
type EmergencyType string

const (
	TypeCardiac     EmergencyType = "cardiac"
	TypeRespiratory EmergencyType = "respiratory"
	TypeTrauma      EmergencyType = "trauma"
	TypeAllergy     EmergencyType = "allergy"
	TypeStroke      EmergencyType = "stroke"
	TypeSeizure     EmergencyType = "seizure"
	TypeUnconscious EmergencyType = "unconscious"
	TypeBleeding    EmergencyType = "bleeding"
	TypeOther       EmergencyType = "other"
)

// IsValid проверяет принадлежность значения закрытому набору типов
func (t EmergencyType) IsValid() bool {
	switch t {
	case TypeCardiac, TypeRespiratory, TypeTrauma, TypeAllergy,
		TypeStroke, TypeSeizure, TypeUnconscious, TypeBleeding, TypeOther:
		return true
	}
	return false
}

// Severity - уровень серьезности случая
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid проверяет принадлежность значения закрытому набору уровней
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ResponderStatus - статус отдельного спасателя на вызове
type ResponderStatus string

const (
	ResponderDispatched ResponderStatus = "dispatched"
	ResponderOnScene    ResponderStatus = "on-scene"
	ResponderCompleted  ResponderStatus = "completed"
)

// Location - адрес и координаты места происшествия
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Reporter - данные заявителя; привязка к аккаунту необязательна
type Reporter struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name"`
	Phone  string     `json:"phone,omitempty"`
}

// Responder - спасатель, назначенный на случай
type Responder struct {
	UserID *uuid.UUID      `json:"user_id,omitempty"`
	Name   string          `json:"name"`
	Role   string          `json:"role"`
	Status ResponderStatus `json:"status"`
}

// Emergency - зарегистрированный экстренный случай с жизненным циклом статусов
type Emergency struct {
	ID             uuid.UUID     `json:"id"`
	Type           EmergencyType `json:"type"`
	Severity       Severity      `json:"severity"`
	Location       Location      `json:"location"`
	Description    string        `json:"description"`
	Reporter       Reporter      `json:"reporter"`
	Status         Status        `json:"status"`
	Responders     []Responder   `json:"responders"`
	NumberOfPeople int           `json:"number_of_people"`
	Images         []string      `json:"images"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// IsActive сообщает, находится ли случай еще в работе
func (e *Emergency) IsActive() bool {
	return e.Status != StatusResolved && e.Status != StatusCancelled
}

// Validate проверяет инварианты сущности перед сохранением.
// Возвращает ValidationError с именем первого нарушенного поля.
func (e *Emergency) Validate() error {
	if !e.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: "must be one of the known emergency types"}
	}
	if !e.Severity.IsValid() {
		return &ValidationError{Field: "severity", Reason: "must be one of: low, medium, high"}
	}
	if e.Location.Address == "" {
		return &ValidationError{Field: "location.address", Reason: "is required"}
	}
	if e.Location.Latitude < -90 || e.Location.Latitude > 90 {
		return &ValidationError{Field: "location.lat", Reason: "must be within [-90, 90]"}
	}
	if e.Location.Longitude < -180 || e.Location.Longitude > 180 {
		return &ValidationError{Field: "location.lng", Reason: "must be within [-180, 180]"}
	}
	if e.Description == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if e.Reporter.Name == "" {
		return &ValidationError{Field: "reporter.name", Reason: "is required"}
	}
	if e.NumberOfPeople < 1 {
		return &ValidationError{Field: "number_of_people", Reason: "must be at least 1"}
	}
	return nil
}
