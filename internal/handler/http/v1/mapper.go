package v1

import (
	"github.com/shenikar/emergency_response_system/internal/models"
)

// DTOToEmergencyModel преобразует DTO регистрации в доменную модель
func DTOToEmergencyModel(dto CreateEmergencyRequest) *models.Emergency {
	model := &models.Emergency{
		Type:     models.EmergencyType(dto.Type),
		Severity: models.Severity(dto.Severity),
		Location: models.Location{
			Address:   dto.Location.Address,
			Latitude:  dto.Location.Latitude,
			Longitude: dto.Location.Longitude,
		},
		Description: dto.Description,
		Reporter: models.Reporter{
			UserID: dto.Reporter.UserID,
			Name:   dto.Reporter.Name,
			Phone:  dto.Reporter.Phone,
		},
		Images: dto.Images,
	}
	// Отсутствующее поле оставляем нулевым - сервис подставит значение по умолчанию
	if dto.NumberOfPeople != nil {
		model.NumberOfPeople = *dto.NumberOfPeople
	}
	return model
}

// ModelToEmergencyResponse преобразует доменную модель в DTO для ответа
func ModelToEmergencyResponse(model *models.Emergency) *EmergencyResponse {
	responders := make([]ResponderDTO, len(model.Responders))
	for i, r := range model.Responders {
		responders[i] = ResponderDTO{
			UserID: r.UserID,
			Name:   r.Name,
			Role:   r.Role,
			Status: string(r.Status),
		}
	}
	return &EmergencyResponse{
		ID:       model.ID,
		Type:     string(model.Type),
		Severity: string(model.Severity),
		Location: LocationDTO{
			Address:   model.Location.Address,
			Latitude:  model.Location.Latitude,
			Longitude: model.Location.Longitude,
		},
		Description: model.Description,
		Reporter: ReporterDTO{
			UserID: model.Reporter.UserID,
			Name:   model.Reporter.Name,
			Phone:  model.Reporter.Phone,
		},
		Status:         string(model.Status),
		Responders:     responders,
		NumberOfPeople: model.NumberOfPeople,
		Images:         model.Images,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		ResolvedAt:     model.ResolvedAt,
	}
}

// ModelsToEmergencyResponses преобразует слайс моделей в слайс DTO
func ModelsToEmergencyResponses(models []*models.Emergency) []*EmergencyResponse {
	responses := make([]*EmergencyResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToEmergencyResponse(model)
	}
	return responses
}

// CountsToStatsResponse разворачивает счетчики по статусам в DTO
func CountsToStatsResponse(counts map[models.Status]int) StatsResponse {
	resp := StatsResponse{
		Reported:   counts[models.StatusReported],
		Dispatched: counts[models.StatusDispatched],
		InProgress: counts[models.StatusInProgress],
		Resolved:   counts[models.StatusResolved],
		Cancelled:  counts[models.StatusCancelled],
	}
	resp.Total = resp.Reported + resp.Dispatched + resp.InProgress + resp.Resolved + resp.Cancelled
	return resp
}
