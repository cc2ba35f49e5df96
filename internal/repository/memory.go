package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service"
)

// MemoryEmergencyRepository - хранилище в памяти за тем же интерфейсом, что и
// Postgres-реализация. Используется в тестах и локальных запусках без бд.
// Мьютекс хранилища делает последовательность чтение-проверка-запись в
// UpdateStatus атомарной относительно конкурирующих вызовов.
type MemoryEmergencyRepository struct {
	mu          sync.RWMutex
	emergencies map[uuid.UUID]*models.Emergency
}

func NewMemoryEmergencyRepository() service.EmergencyRepository {
	return &MemoryEmergencyRepository{
		emergencies: make(map[uuid.UUID]*models.Emergency),
	}
}

// clone отдает копию, чтобы вызывающий не мутировал хранимое состояние
func clone(e *models.Emergency) *models.Emergency {
	cp := *e
	cp.Responders = append([]models.Responder(nil), e.Responders...)
	cp.Images = append([]string(nil), e.Images...)
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

func (r *MemoryEmergencyRepository) Create(_ context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	emergency.ID = uuid.New()
	emergency.CreatedAt = now
	emergency.UpdatedAt = now
	r.emergencies[emergency.ID] = clone(emergency)
	return nil
}

func (r *MemoryEmergencyRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emergency, ok := r.emergencies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(emergency), nil
}

func (r *MemoryEmergencyRepository) List(_ context.Context, statuses []models.Status, limit int) ([]*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[models.Status]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	result := make([]*models.Emergency, 0)
	for _, emergency := range r.emergencies {
		if len(wanted) > 0 && !wanted[emergency.Status] {
			continue
		}
		result = append(result, clone(emergency))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryEmergencyRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status) (*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emergency, ok := r.emergencies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.CanTransition(emergency.Status, status) {
		return nil, &models.InvalidTransitionError{From: emergency.Status, To: status}
	}

	now := time.Now().UTC()
	emergency.Status = status
	emergency.UpdatedAt = now
	if status == models.StatusResolved {
		emergency.ResolvedAt = &now
	}
	return clone(emergency), nil
}

func (r *MemoryEmergencyRepository) FindNearby(_ context.Context, lat, lng float64, radiusMeters int) ([]*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Emergency, 0)
	for _, emergency := range r.emergencies {
		if !emergency.IsActive() {
			continue
		}
		if haversineMeters(lat, lng, emergency.Location.Latitude, emergency.Location.Longitude) <= float64(radiusMeters) {
			result = append(result, clone(emergency))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryEmergencyRepository) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, emergency := range r.emergencies {
		counts[emergency.Status]++
	}
	return counts, nil
}

// Кеширование не имеет смысла для хранилища в памяти - методы кеша no-op

func (r *MemoryEmergencyRepository) GetEmergencyFromCache(context.Context, uuid.UUID) (*models.Emergency, error) {
	return nil, nil
}

func (r *MemoryEmergencyRepository) SetEmergencyCache(context.Context, *models.Emergency) error {
	return nil
}

func (r *MemoryEmergencyRepository) InvalidateEmergencyCache(context.Context, uuid.UUID) error {
	return nil
}

// haversineMeters - расстояние между двумя точками на сфере в метрах
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
