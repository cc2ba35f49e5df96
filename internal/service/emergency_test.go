package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service/mocks"
	webhookmocks "github.com/shenikar/emergency_response_system/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestEmergencyService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestEmergencyService(t *testing.T) (*emergencyService, *mocks.MockEmergencyRepository, *mocks.MockEventBroadcaster, *webhookmocks.MockEventPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockEmergencyRepository(ctrl)
	broadcasterMock := mocks.NewMockEventBroadcaster(ctrl)
	publisherMock := webhookmocks.NewMockEventPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	svc := NewEmergencyService(repoMock, broadcasterMock, publisherMock, logger)
	return svc.(*emergencyService), repoMock, broadcasterMock, publisherMock
}

func testEmergency() *models.Emergency {
	return &models.Emergency{
		Type:           models.TypeCardiac,
		Severity:       models.SeverityHigh,
		Location:       models.Location{Address: "Main St", Latitude: 40.0, Longitude: -74.0},
		Description:    "chest pain",
		Reporter:       models.Reporter{Name: "Alex"},
		NumberOfPeople: 1,
	}
}

func TestReportEmergency_Success(t *testing.T) {
	service, repoMock, broadcasterMock, publisherMock := newTestEmergencyService(t)
	ctx := context.Background()
	emergency := testEmergency()

	// Порядок гарантируется: сначала фиксация в хранилище, затем рассылка
	createCall := repoMock.EXPECT().
		Create(ctx, emergency).
		DoAndReturn(func(_ context.Context, e *models.Emergency) error {
			e.ID = uuid.New()
			return nil
		}).
		Times(1)

	broadcasterMock.EXPECT().
		Publish(RoomGlobal, EventNewEmergency, emergency).
		After(createCall).
		Times(1)

	publisherMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	err := service.ReportEmergency(ctx, emergency)

	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, emergency.Status)
	assert.NotEqual(t, uuid.Nil, emergency.ID)
}

func TestReportEmergency_DefaultsNumberOfPeople(t *testing.T) {
	service, repoMock, broadcasterMock, publisherMock := newTestEmergencyService(t)
	ctx := context.Background()
	emergency := testEmergency()
	emergency.NumberOfPeople = 0

	repoMock.EXPECT().Create(ctx, emergency).Return(nil).Times(1)
	broadcasterMock.EXPECT().Publish(RoomGlobal, EventNewEmergency, emergency).Times(1)
	publisherMock.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	require.NoError(t, service.ReportEmergency(ctx, emergency))
	assert.Equal(t, 1, emergency.NumberOfPeople)
}

func TestReportEmergency_ValidationError(t *testing.T) {
	service, _, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	emergency := testEmergency()
	emergency.Description = ""

	// Хранилище и рассылка не трогаются при отказе валидации
	err := service.ReportEmergency(ctx, emergency)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "description", vErr.Field)
}

func TestReportEmergency_RepositoryError(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergency := testEmergency()

	repoMock.EXPECT().
		Create(ctx, emergency).
		Return(fmt.Errorf("connection lost")).
		Times(1)

	// Рассылка не вызывается, если запись не зафиксирована
	err := service.ReportEmergency(ctx, emergency)
	require.Error(t, err)
}

func TestGetEmergency_Success_FromCache(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()
	expected := testEmergency()
	expected.ID = emergencyID

	repoMock.EXPECT().
		GetEmergencyFromCache(ctx, emergencyID).
		Return(expected, nil).
		Times(1)

	emergency, err := service.GetEmergency(ctx, emergencyID)

	require.NoError(t, err)
	assert.Equal(t, expected, emergency)
}

func TestGetEmergency_Success_FromDB(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()
	expected := testEmergency()
	expected.ID = emergencyID

	// 1. Промах кеша
	repoMock.EXPECT().
		GetEmergencyFromCache(ctx, emergencyID).
		Return(nil, nil).
		Times(1)

	// 2. Попадание в БД
	repoMock.EXPECT().
		GetByID(ctx, emergencyID).
		Return(expected, nil).
		Times(1)

	// 3. Запись в кеш
	repoMock.EXPECT().
		SetEmergencyCache(ctx, expected).
		Return(nil).
		Times(1)

	emergency, err := service.GetEmergency(ctx, emergencyID)

	require.NoError(t, err)
	assert.Equal(t, expected, emergency)
}

func TestGetEmergency_NotFound(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()

	repoMock.EXPECT().
		GetEmergencyFromCache(ctx, emergencyID).
		Return(nil, nil).
		Times(1)

	repoMock.EXPECT().
		GetByID(ctx, emergencyID).
		Return(nil, models.ErrNotFound).
		Times(1)

	emergency, err := service.GetEmergency(ctx, emergencyID)

	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, emergency)
}

func TestUpdateEmergencyStatus_Success_BroadcastsToBothRooms(t *testing.T) {
	service, repoMock, broadcasterMock, publisherMock := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()

	updated := testEmergency()
	updated.ID = emergencyID
	updated.Status = models.StatusDispatched

	updateCall := repoMock.EXPECT().
		UpdateStatus(ctx, emergencyID, models.StatusDispatched).
		Return(updated, nil).
		Times(1)

	repoMock.EXPECT().
		InvalidateEmergencyCache(ctx, emergencyID).
		Return(nil).
		Times(1)

	payload := StatusChangedPayload{EmergencyID: emergencyID, Status: models.StatusDispatched, Emergency: updated}

	// Событие уходит и в комнату случая, и в общую комнату
	broadcasterMock.EXPECT().
		Publish(emergencyID.String(), EventStatusChanged, payload).
		After(updateCall).
		Times(1)
	broadcasterMock.EXPECT().
		Publish(RoomGlobal, EventStatusChanged, payload).
		After(updateCall).
		Times(1)

	publisherMock.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	emergency, err := service.UpdateEmergencyStatus(ctx, emergencyID, models.StatusDispatched)

	require.NoError(t, err)
	assert.Equal(t, models.StatusDispatched, emergency.Status)
}

func TestUpdateEmergencyStatus_InvalidTransition(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()

	repoMock.EXPECT().
		UpdateStatus(ctx, emergencyID, models.StatusResolved).
		Return(nil, &models.InvalidTransitionError{From: models.StatusDispatched, To: models.StatusResolved}).
		Times(1)

	// Никакой рассылки при отклоненном переходе
	emergency, err := service.UpdateEmergencyStatus(ctx, emergencyID, models.StatusResolved)

	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.StatusDispatched, transitionErr.From)
	assert.Equal(t, models.StatusResolved, transitionErr.To)
	assert.Nil(t, emergency)
}

func TestUpdateEmergencyStatus_NotFound(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()
	emergencyID := uuid.New()

	repoMock.EXPECT().
		UpdateStatus(ctx, emergencyID, models.StatusDispatched).
		Return(nil, models.ErrNotFound).
		Times(1)

	_, err := service.UpdateEmergencyStatus(ctx, emergencyID, models.StatusDispatched)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateEmergencyStatus_UnknownStatusRejected(t *testing.T) {
	service, _, _, _ := newTestEmergencyService(t)

	_, err := service.UpdateEmergencyStatus(context.Background(), uuid.New(), models.Status("escalated"))

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestListEmergencies_CapsLimit(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	// Запрошенный limit выше потолка урезается до 100
	repoMock.EXPECT().
		List(ctx, nil, 100).
		Return([]*models.Emergency{}, nil).
		Times(1)

	_, err := service.ListEmergencies(ctx, nil, 500)
	require.NoError(t, err)

	// Нулевой limit заменяется значением по умолчанию
	repoMock.EXPECT().
		List(ctx, nil, 50).
		Return([]*models.Emergency{}, nil).
		Times(1)

	_, err = service.ListEmergencies(ctx, nil, 0)
	require.NoError(t, err)
}

func TestListEmergencies_UnknownStatusFilter(t *testing.T) {
	service, _, _, _ := newTestEmergencyService(t)

	_, err := service.ListEmergencies(context.Background(), []models.Status{"bogus"}, 10)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestListActiveEmergencies(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	repoMock.EXPECT().
		List(ctx, models.ActiveStatuses, 100).
		Return([]*models.Emergency{}, nil).
		Times(1)

	_, err := service.ListActiveEmergencies(ctx)
	require.NoError(t, err)
}

func TestFindNearby_ValidatesInput(t *testing.T) {
	service, _, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	var vErr *models.ValidationError

	_, err := service.FindNearby(ctx, 91, 0, 100)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "lat", vErr.Field)

	_, err = service.FindNearby(ctx, 0, 181, 100)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "lng", vErr.Field)

	_, err = service.FindNearby(ctx, 0, 0, 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "radius_meters", vErr.Field)
}

func TestGetStats(t *testing.T) {
	service, repoMock, _, _ := newTestEmergencyService(t)
	ctx := context.Background()

	expected := map[models.Status]int{models.StatusReported: 2, models.StatusResolved: 1}
	repoMock.EXPECT().
		CountByStatus(ctx).
		Return(expected, nil).
		Times(1)

	counts, err := service.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, counts)
}
