package v1

import (
	"time"

	"github.com/google/uuid"
)

// LocationDTO - адрес и координаты места происшествия
// @Description Адрес и координаты места происшествия
type LocationDTO struct {
	Address   string  `json:"address" validate:"required,min=2,max=255"`
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ReporterDTO - данные заявителя
// @Description Данные заявителя
type ReporterDTO struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name" validate:"required,min=1,max=255"`
	Phone  string     `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// ResponderDTO - спасатель, назначенный на случай
// @Description Спасатель, назначенный на случай
type ResponderDTO struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name"`
	Role   string     `json:"role"`
	Status string     `json:"status"`
}

// CreateEmergencyRequest DTO для регистрации экстренного случая
// @Description DTO для регистрации экстренного случая
type CreateEmergencyRequest struct {
	Type           string      `json:"type" validate:"required"`
	Severity       string      `json:"severity" validate:"required,oneof=low medium high"`
	Location       LocationDTO `json:"location" validate:"required"`
	Description    string      `json:"description" validate:"required"`
	Reporter       ReporterDTO `json:"reporter" validate:"required"`
	// Указатель отличает отсутствующее поле (значение по умолчанию 1)
	// от явно переданного нуля, который должен быть отклонен
	NumberOfPeople *int        `json:"number_of_people,omitempty" validate:"omitempty,gte=1"`
	Images         []string    `json:"images,omitempty"`
}

// UpdateStatusRequest DTO для перехода статуса
// @Description DTO для перехода статуса
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EmergencyResponse DTO для ответа с информацией об экстренном случае
// @Description DTO для ответа с информацией об экстренном случае
type EmergencyResponse struct {
	ID             uuid.UUID      `json:"id"`
	Type           string         `json:"type"`
	Severity       string         `json:"severity"`
	Location       LocationDTO    `json:"location"`
	Description    string         `json:"description"`
	Reporter       ReporterDTO    `json:"reporter"`
	Status         string         `json:"status"`
	Responders     []ResponderDTO `json:"responders"`
	NumberOfPeople int            `json:"number_of_people"`
	Images         []string       `json:"images"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// StatsResponse DTO для ответа со статистикой по статусам
// @Description DTO для ответа со статистикой по статусам
type StatsResponse struct {
	Reported   int `json:"reported"`
	Dispatched int `json:"dispatched"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}
