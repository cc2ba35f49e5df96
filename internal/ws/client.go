package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// ErrClientUnavailable - клиент закрыт или его буфер отправки переполнен
var ErrClientUnavailable = errors.New("ws client unavailable")

// Client - одно WebSocket-соединение с собственной очередью отправки.
// Все записи в сокет идут через writePump, поэтому рассылающий никогда
// не блокируется на медленном соединении.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient оборачивает соединение в клиента с буфером отправки
func NewClient(conn *websocket.Conn, sendBufferSize int) *Client {
	if sendBufferSize < 1 {
		sendBufferSize = 32
	}
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// TrySend ставит кадр в очередь отправки без блокировки.
// Переполненный буфер означает безнадежно отстающего клиента.
func (c *Client) TrySend(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientUnavailable
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrClientUnavailable
	}
}

// Close останавливает очередь отправки; повторные вызовы безопасны
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// context возвращает контекст исходного HTTP-запроса соединения
func (c *Client) context() context.Context {
	if c.conn != nil {
		if req := c.conn.Request(); req != nil {
			return req.Context()
		}
	}
	return context.Background()
}

// WritePump последовательно пишет кадры из очереди в сокет.
// Завершается при закрытии очереди или первой ошибке записи.
func (c *Client) WritePump(log *logrus.Logger) {
	for payload := range c.send {
		if err := websocket.Message.Send(c.conn, string(payload)); err != nil {
			log.WithError(err).WithField("client_id", c.ID).Warn("Failed to write to WebSocket client")
			return
		}
	}
}
