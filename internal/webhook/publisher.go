package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_response_system/internal/models"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const (
	webhookQueueKey = "webhook_events"
)

// Типы событий жизненного цикла, доставляемых внешним подписчикам
const (
	EventEmergencyReported      = "emergency.reported"
	EventEmergencyStatusChanged = "emergency.status_changed"
)

// EmergencyEvent - структура для данных вебхука
type EmergencyEvent struct {
	Type      string            `json:"type"`
	Emergency *models.Emergency `json:"emergency"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventPublisher - интерфейс для публикации вебхуков
type EventPublisher interface {
	Publish(ctx context.Context, event EmergencyEvent) error
}

// RedisEventPublisher - реализация EventPublisher, использующая Redis
type RedisEventPublisher struct {
	redisClient *redis.Client
}

// NewRedisEventPublisher создает новый RedisEventPublisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisEventPublisher) Publish(ctx context.Context, event EmergencyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH добавляет событие в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
