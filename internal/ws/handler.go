package ws

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/metrics"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// Имена входящих событий реального времени
const (
	eventJoinEmergency    = "join-emergency"
	eventLeaveEmergency   = "leave-emergency"
	eventEmergencyUpdated = "emergency-updated"
	eventError            = "error"
)

// statusRelayRequest - полезная нагрузка входящего события emergency-updated
type statusRelayRequest struct {
	EmergencyID uuid.UUID     `json:"emergency_id"`
	Status      models.Status `json:"status"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Handler обслуживает WebSocket-соединения: подписки на комнаты и
// совместимый relay-путь обновления статуса. Relay проходит через тот же
// сервис, что и HTTP-путь, поэтому непроверенных переходов статуса не бывает.
type Handler struct {
	registry         *Registry
	emergencyService service.EmergencyService
	logger           *logrus.Logger
	sendBufferSize   int
}

func NewHandler(registry *Registry, emergencyService service.EmergencyService, logger *logrus.Logger, sendBufferSize int) *Handler {
	return &Handler{
		registry:         registry,
		emergencyService: emergencyService,
		logger:           logger,
		sendBufferSize:   sendBufferSize,
	}
}

// HTTPHandler возвращает http.Handler, выполняющий WebSocket-рукопожатие
func (h *Handler) HTTPHandler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Handler) serve(conn *websocket.Conn) {
	client := NewClient(conn, h.sendBufferSize)
	log := h.logger.WithField("client_id", client.ID)

	metrics.WSConnections.Inc()
	log.Info("WebSocket client connected")

	done := make(chan struct{})
	go func() {
		client.WritePump(h.logger)
		close(done)
	}()

	defer func() {
		h.registry.DisconnectAll(client)
		client.Close()
		conn.Close()
		<-done
		metrics.WSConnections.Dec()
		log.Info("WebSocket client disconnected")
	}()

	decoder := json.NewDecoder(conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("WebSocket read ended")
			}
			return
		}
		h.handleFrame(client, log, frame)
	}
}

func (h *Handler) handleFrame(client *Client, log *logrus.Entry, frame Frame) {
	switch frame.Event {
	case eventJoinEmergency:
		roomID, ok := h.decodeRoomID(client, log, frame.Data)
		if !ok {
			return
		}
		h.registry.Subscribe(client, roomID)
		log.WithField("room_id", roomID).Info("Client joined room")

	case eventLeaveEmergency:
		roomID, ok := h.decodeRoomID(client, log, frame.Data)
		if !ok {
			return
		}
		h.registry.Unsubscribe(client, roomID)
		log.WithField("room_id", roomID).Info("Client left room")

	case eventEmergencyUpdated:
		// Relay-путь обновления статуса идет через сервис и валидатор переходов,
		// рассылку по комнатам выполняет сам сервис после фиксации
		var req statusRelayRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			h.sendError(client, "invalid emergency-updated payload")
			return
		}
		if _, err := h.emergencyService.UpdateEmergencyStatus(client.context(), req.EmergencyID, req.Status); err != nil {
			log.WithError(err).Warn("Relayed status update rejected")
			h.sendError(client, err.Error())
		}

	default:
		log.WithField("event", frame.Event).Warn("Unknown WebSocket event")
		h.sendError(client, "unknown event: "+frame.Event)
	}
}

// decodeRoomID разбирает данные события подписки: id случая или "global"
func (h *Handler) decodeRoomID(client *Client, log *logrus.Entry, data json.RawMessage) (string, bool) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		h.sendError(client, "room id must be an emergency id or \"global\"")
		return "", false
	}
	if roomID != service.RoomGlobal {
		if _, err := uuid.Parse(roomID); err != nil {
			h.sendError(client, "room id must be an emergency id or \"global\"")
			return "", false
		}
	}
	return roomID, true
}

func (h *Handler) sendError(client *Client, message string) {
	data, err := json.Marshal(errorPayload{Message: message})
	if err != nil {
		return
	}
	frame, err := json.Marshal(Frame{Event: eventError, Data: data})
	if err != nil {
		return
	}
	// Ошибку недоступного клиента глушим: соединение закроет читающая горутина
	_ = client.TrySend(frame)
}
