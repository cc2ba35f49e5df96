package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/metrics"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=emergency.go -destination=mocks/mock_service.go -package=mocks

// RoomGlobal - идентификатор общей комнаты для наблюдателей дашборда
const RoomGlobal = "global"

// Имена исходящих событий реального времени
const (
	EventNewEmergency  = "new-emergency"
	EventStatusChanged = "emergency-status-changed"
)

// EmergencyRepository определяет контракт для работы с хранилищем экстренных случаев
type EmergencyRepository interface {
	Create(ctx context.Context, emergency *models.Emergency) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Emergency, error)
	List(ctx context.Context, statuses []models.Status, limit int) ([]*models.Emergency, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Emergency, error)
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]*models.Emergency, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)

	GetEmergencyFromCache(ctx context.Context, id uuid.UUID) (*models.Emergency, error)
	SetEmergencyCache(ctx context.Context, emergency *models.Emergency) error
	InvalidateEmergencyCache(ctx context.Context, id uuid.UUID) error
}

// EventBroadcaster определяет контракт рассылки событий подключенным клиентам.
// Доставка best-effort: ошибки отдельных соединений не возвращаются публикующему.
type EventBroadcaster interface {
	Publish(roomID, event string, payload any)
}

// EmergencyService определяет контракт бизнес-логики управления экстренными случаями
type EmergencyService interface {
	ReportEmergency(ctx context.Context, emergency *models.Emergency) error
	GetEmergency(ctx context.Context, id uuid.UUID) (*models.Emergency, error)
	ListEmergencies(ctx context.Context, statuses []models.Status, limit int) ([]*models.Emergency, error)
	ListActiveEmergencies(ctx context.Context) ([]*models.Emergency, error)
	UpdateEmergencyStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Emergency, error)
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]*models.Emergency, error)
	GetStats(ctx context.Context) (map[models.Status]int, error)
}

// StatusChangedPayload - полезная нагрузка события emergency-status-changed
type StatusChangedPayload struct {
	EmergencyID uuid.UUID         `json:"emergency_id"`
	Status      models.Status     `json:"status"`
	Emergency   *models.Emergency `json:"emergency"`
}

type emergencyService struct {
	repo        EmergencyRepository
	broadcaster EventBroadcaster
	publisher   webhook.EventPublisher
	logger      *logrus.Logger
}

func NewEmergencyService(repo EmergencyRepository, broadcaster EventBroadcaster, publisher webhook.EventPublisher, logger *logrus.Logger) EmergencyService {
	return &emergencyService{
		repo:        repo,
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger,
	}
}

// ReportEmergency регистрирует новый случай: валидация -> запись -> рассылка.
// Рассылка выполняется только после успешной фиксации в хранилище.
func (s *emergencyService) ReportEmergency(ctx context.Context, emergency *models.Emergency) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "emergency",
		"method":  "ReportEmergency",
		"type":    emergency.Type,
	})
	log.Info("Attempting to report a new emergency")

	emergency.Status = models.StatusReported
	if emergency.NumberOfPeople == 0 {
		emergency.NumberOfPeople = 1
	}
	if emergency.Responders == nil {
		emergency.Responders = []models.Responder{}
	}
	if emergency.Images == nil {
		emergency.Images = []string{}
	}

	if err := emergency.Validate(); err != nil {
		log.WithError(err).Warn("Emergency validation failed")
		return err
	}

	if err := s.repo.Create(ctx, emergency); err != nil {
		log.WithError(err).Error("Failed to create emergency in repository")
		return fmt.Errorf("service: could not create emergency: %w", err)
	}

	metrics.EmergenciesReported.Inc()
	log.WithField("emergency_id", emergency.ID).Info("Emergency reported successfully")

	s.broadcaster.Publish(RoomGlobal, EventNewEmergency, emergency)
	s.publishWebhook(ctx, log, webhook.EventEmergencyReported, emergency)
	return nil
}

// GetEmergency получает случай по ID, сначала из кеша, затем из бд
func (s *emergencyService) GetEmergency(ctx context.Context, id uuid.UUID) (*models.Emergency, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "emergency",
		"method":       "GetEmergency",
		"emergency_id": id,
	})

	cached, err := s.repo.GetEmergencyFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read emergency from cache")
	}
	if cached != nil {
		return cached, nil
	}

	emergency, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Emergency not found")
			return nil, err
		}
		log.WithError(err).Error("Failed to get emergency from repository")
		return nil, fmt.Errorf("service: could not get emergency: %w", err)
	}

	if err := s.repo.SetEmergencyCache(ctx, emergency); err != nil {
		log.WithError(err).Warn("Failed to cache emergency")
	}
	return emergency, nil
}

// ListEmergencies возвращает случаи в порядке убывания времени создания.
// limit ограничен сверху, чтобы не допускать неограниченных выборок.
func (s *emergencyService) ListEmergencies(ctx context.Context, statuses []models.Status, limit int) ([]*models.Emergency, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "emergency",
		"method":  "ListEmergencies",
		"limit":   limit,
	})

	for _, st := range statuses {
		if !st.IsValid() {
			log.WithField("status", st).Warn("Rejecting list request with unknown status filter")
			return nil, &models.ValidationError{Field: "status", Reason: "is not a known status"}
		}
	}

	emergencies, err := s.repo.List(ctx, statuses, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list emergencies from repository")
		return nil, fmt.Errorf("service: could not list emergencies: %w", err)
	}

	log.WithField("count", len(emergencies)).Info("Emergencies listed successfully")
	return emergencies, nil
}

// ListActiveEmergencies возвращает случаи со статусами reported, dispatched, in-progress
func (s *emergencyService) ListActiveEmergencies(ctx context.Context) ([]*models.Emergency, error) {
	return s.ListEmergencies(ctx, models.ActiveStatuses, 100)
}

// UpdateEmergencyStatus выполняет атомарный переход статуса и рассылает уведомления.
// Проверка перехода и запись происходят атомарно внутри репозитория, поэтому два
// конкурирующих вызова на один случай никогда не фиксируют несовместимые статусы.
func (s *emergencyService) UpdateEmergencyStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Emergency, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "emergency",
		"method":       "UpdateEmergencyStatus",
		"emergency_id": id,
		"status":       status,
	})
	log.Info("Attempting to update emergency status")

	if !status.IsValid() {
		log.Warn("Rejecting unknown status value")
		return nil, &models.ValidationError{Field: "status", Reason: "is not a known status"}
	}

	emergency, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		var transitionErr *models.InvalidTransitionError
		switch {
		case errors.Is(err, models.ErrNotFound):
			log.Warn("Attempted to update a non-existent emergency")
			return nil, err
		case errors.As(err, &transitionErr):
			log.WithField("current", transitionErr.From).Warn("Illegal status transition rejected")
			return nil, err
		default:
			log.WithError(err).Error("Failed to update emergency status in repository")
			return nil, fmt.Errorf("service: could not update emergency status: %w", err)
		}
	}

	if err := s.repo.InvalidateEmergencyCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate emergency cache")
	}

	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	log.Info("Emergency status updated successfully")

	// Сначала комната конкретного случая, затем общая комната дашборда.
	// Обе рассылки читают уже зафиксированное состояние.
	payload := StatusChangedPayload{EmergencyID: id, Status: emergency.Status, Emergency: emergency}
	s.broadcaster.Publish(id.String(), EventStatusChanged, payload)
	s.broadcaster.Publish(RoomGlobal, EventStatusChanged, payload)
	s.publishWebhook(ctx, log, webhook.EventEmergencyStatusChanged, emergency)
	return emergency, nil
}

// FindNearby находит активные случаи в заданном радиусе от точки
func (s *emergencyService) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]*models.Emergency, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "emergency",
		"method":  "FindNearby",
	})

	if lat < -90 || lat > 90 {
		return nil, &models.ValidationError{Field: "lat", Reason: "must be within [-90, 90]"}
	}
	if lng < -180 || lng > 180 {
		return nil, &models.ValidationError{Field: "lng", Reason: "must be within [-180, 180]"}
	}
	if radiusMeters <= 0 {
		return nil, &models.ValidationError{Field: "radius_meters", Reason: "must be greater than 0"}
	}

	emergencies, err := s.repo.FindNearby(ctx, lat, lng, radiusMeters)
	if err != nil {
		log.WithError(err).Error("Failed to find nearby emergencies")
		return nil, fmt.Errorf("service: could not find nearby emergencies: %w", err)
	}
	return emergencies, nil
}

// GetStats возвращает количество случаев по каждому статусу
func (s *emergencyService) GetStats(ctx context.Context) (map[models.Status]int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "emergency",
		"method":  "GetStats",
	})

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count emergencies by status")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}
	return counts, nil
}

// publishWebhook ставит событие в очередь вебхуков; отказ очереди не влияет на запрос
func (s *emergencyService) publishWebhook(ctx context.Context, log *logrus.Entry, eventType string, emergency *models.Emergency) {
	if s.publisher == nil {
		return
	}
	event := webhook.EmergencyEvent{
		Type:      eventType,
		Emergency: emergency,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to enqueue webhook event")
	}
}
