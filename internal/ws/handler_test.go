package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service"
	"github.com/shenikar/emergency_response_system/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestWSHandler(t *testing.T) (*Handler, *Registry, *mocks.MockEmergencyService) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockEmergencyService(ctrl)
	registry := NewRegistry()
	handler := NewHandler(registry, mockService, newTestLogger(), 4)
	return handler, registry, mockService
}

func frame(t *testing.T, event string, data any) Frame {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Frame{Event: event, Data: raw}
}

func TestHandleFrame_JoinGlobalRoom(t *testing.T) {
	handler, registry, _ := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())

	handler.handleFrame(client, log, frame(t, eventJoinEmergency, service.RoomGlobal))

	assert.Equal(t, 1, registry.MemberCount(service.RoomGlobal))
}

func TestHandleFrame_JoinEmergencyRoom(t *testing.T) {
	handler, registry, _ := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())
	roomID := uuid.NewString()

	handler.handleFrame(client, log, frame(t, eventJoinEmergency, roomID))
	// Повторная подписка не удваивает членство
	handler.handleFrame(client, log, frame(t, eventJoinEmergency, roomID))

	assert.Equal(t, 1, registry.MemberCount(roomID))
}

func TestHandleFrame_JoinRejectsMalformedRoomID(t *testing.T) {
	handler, registry, _ := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())

	handler.handleFrame(client, log, frame(t, eventJoinEmergency, "not-a-room"))

	assert.Equal(t, 0, registry.MemberCount("not-a-room"))
	errFrame := receive(t, client)
	assert.Equal(t, eventError, errFrame.Event)
}

func TestHandleFrame_Leave(t *testing.T) {
	handler, registry, _ := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())

	handler.handleFrame(client, log, frame(t, eventJoinEmergency, service.RoomGlobal))
	handler.handleFrame(client, log, frame(t, eventLeaveEmergency, service.RoomGlobal))

	assert.Equal(t, 0, registry.MemberCount(service.RoomGlobal))
}

// TestHandleFrame_RelayGoesThroughService: relay-путь не пишет статус напрямую,
// а вызывает тот же сервис, что и HTTP-обработчик
func TestHandleFrame_RelayGoesThroughService(t *testing.T) {
	handler, _, mockService := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())
	emergencyID := uuid.New()

	mockService.EXPECT().
		UpdateEmergencyStatus(gomock.Any(), emergencyID, models.StatusDispatched).
		Return(&models.Emergency{ID: emergencyID, Status: models.StatusDispatched}, nil).
		Times(1)

	handler.handleFrame(client, log, frame(t, eventEmergencyUpdated, statusRelayRequest{
		EmergencyID: emergencyID,
		Status:      models.StatusDispatched,
	}))

	// Успешный relay не шлет ничего обратно напрямую: рассылку делает сервис
	assert.Empty(t, client.send)
}

func TestHandleFrame_RelayRejectionSendsErrorFrame(t *testing.T) {
	handler, _, mockService := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())
	emergencyID := uuid.New()

	mockService.EXPECT().
		UpdateEmergencyStatus(gomock.Any(), emergencyID, models.StatusResolved).
		Return(nil, &models.InvalidTransitionError{From: models.StatusReported, To: models.StatusResolved}).
		Times(1)

	handler.handleFrame(client, log, frame(t, eventEmergencyUpdated, statusRelayRequest{
		EmergencyID: emergencyID,
		Status:      models.StatusResolved,
	}))

	errFrame := receive(t, client)
	assert.Equal(t, eventError, errFrame.Event)
}

func TestHandleFrame_UnknownEvent(t *testing.T) {
	handler, _, _ := newTestWSHandler(t)
	client := NewClient(nil, 4)
	log := newTestLogger().WithField("test", t.Name())

	handler.handleFrame(client, log, frame(t, "emergency-reported", map[string]string{}))

	errFrame := receive(t, client)
	assert.Equal(t, eventError, errFrame.Event)
}
