package ws

import (
	"encoding/json"

	"github.com/shenikar/emergency_response_system/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Frame - формат кадра, которым обмениваются клиент и сервер
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Broadcaster рассылает события всем соединениям комнаты.
// Доставка at-most-once и best-effort: отказ одного соединения логируется,
// соединение выводится из реестра, остальные получатели не затрагиваются,
// публикующему ошибка не возвращается.
type Broadcaster struct {
	registry *Registry
	logger   *logrus.Logger
}

func NewBroadcaster(registry *Registry, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger,
	}
}

// Publish доставляет payload всем членам комнаты на момент вызова
func (b *Broadcaster) Publish(roomID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.WithError(err).WithField("event", event).Error("Failed to marshal broadcast payload")
		return
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		b.logger.WithError(err).WithField("event", event).Error("Failed to marshal broadcast frame")
		return
	}

	members := b.registry.MembersOf(roomID)
	for _, client := range members {
		if err := client.TrySend(frame); err != nil {
			b.logger.WithFields(logrus.Fields{
				"client_id": client.ID,
				"room_id":   roomID,
				"event":     event,
			}).Warn("Dropping unreachable WebSocket client")
			b.registry.DisconnectAll(client)
			client.Close()
		}
	}

	metrics.WSEventsPublished.WithLabelValues(event).Inc()
	b.logger.WithFields(logrus.Fields{
		"room_id": roomID,
		"event":   event,
		"members": len(members),
	}).Debug("Event published to room")
}
