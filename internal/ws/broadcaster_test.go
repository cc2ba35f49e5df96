package ws

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

// receive читает один кадр из очереди отправки клиента
func receive(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case payload := <-client.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	default:
		t.Fatal("expected a frame in the client send queue")
		return Frame{}
	}
}

func TestBroadcaster_DeliversToAllRoomMembers(t *testing.T) {
	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, newTestLogger())

	a := NewClient(nil, 4)
	b := NewClient(nil, 4)
	outsider := NewClient(nil, 4)
	registry.Subscribe(a, "room1")
	registry.Subscribe(b, "room1")
	registry.Subscribe(outsider, "room2")

	broadcaster.Publish("room1", "emergency-status-changed", map[string]string{"status": "dispatched"})

	for _, client := range []*Client{a, b} {
		frame := receive(t, client)
		assert.Equal(t, "emergency-status-changed", frame.Event)

		var data map[string]string
		require.NoError(t, json.Unmarshal(frame.Data, &data))
		assert.Equal(t, "dispatched", data["status"])
	}

	// Член другой комнаты ничего не получает
	assert.Empty(t, outsider.send)
}

func TestBroadcaster_EmptyRoomIsNoop(t *testing.T) {
	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, newTestLogger())

	// Публикация в пустую комнату не паникует и не возвращает ошибку
	broadcaster.Publish("nobody", "new-emergency", map[string]string{"id": "x"})
}

// TestBroadcaster_FailedClientIsIsolated проверяет изоляцию отказа: клиент с
// закрытой очередью выводится из реестра, остальные получают событие
func TestBroadcaster_FailedClientIsIsolated(t *testing.T) {
	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, newTestLogger())

	healthy := NewClient(nil, 4)
	dead := NewClient(nil, 4)
	dead.Close()
	registry.Subscribe(healthy, "room1")
	registry.Subscribe(dead, "room1")

	broadcaster.Publish("room1", "new-emergency", map[string]string{"id": "1"})

	frame := receive(t, healthy)
	assert.Equal(t, "new-emergency", frame.Event)

	// Мертвый клиент удален из всех комнат
	assert.Equal(t, 1, registry.MemberCount("room1"))
}

// TestBroadcaster_SlowClientIsDropped: переполненный буфер отправки приводит
// к выводу клиента из реестра, а не к блокировке публикации
func TestBroadcaster_SlowClientIsDropped(t *testing.T) {
	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, newTestLogger())

	slow := NewClient(nil, 1)
	registry.Subscribe(slow, "room1")

	broadcaster.Publish("room1", "new-emergency", map[string]int{"n": 1})
	// Буфер заполнен, вторая публикация переполняет его
	broadcaster.Publish("room1", "new-emergency", map[string]int{"n": 2})

	assert.Equal(t, 0, registry.MemberCount("room1"))
}

// TestBroadcaster_LateSubscriberGetsNothing: события не хранятся и не
// доигрываются подписавшимся позже
func TestBroadcaster_LateSubscriberGetsNothing(t *testing.T) {
	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, newTestLogger())

	broadcaster.Publish("room1", "new-emergency", map[string]int{"n": 1})

	late := NewClient(nil, 4)
	registry.Subscribe(late, "room1")
	assert.Empty(t, late.send)
}
