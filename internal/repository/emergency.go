package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service"
)

// emergencyColumns - общий список колонок для выборок; координаты разворачиваются из PostGIS-точки
const emergencyColumns = `
	id,
	type,
	severity,
	address,
	ST_Y(location::geometry) as latitude,
	ST_X(location::geometry) as longitude,
	description,
	reporter,
	status,
	responders,
	number_of_people,
	images,
	created_at,
	updated_at,
	resolved_at`

type EmergencyRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewEmergencyRepository(db *pgxpool.Pool, redisClient *redis.Client) service.EmergencyRepository {
	return &EmergencyRepository{
		db:          db,
		redisClient: redisClient,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEmergency читает одну строку выборки в модель
func scanEmergency(row rowScanner) (*models.Emergency, error) {
	emergency := &models.Emergency{}
	err := row.Scan(
		&emergency.ID,
		&emergency.Type,
		&emergency.Severity,
		&emergency.Location.Address,
		&emergency.Location.Latitude,
		&emergency.Location.Longitude,
		&emergency.Description,
		&emergency.Reporter,
		&emergency.Status,
		&emergency.Responders,
		&emergency.NumberOfPeople,
		&emergency.Images,
		&emergency.CreatedAt,
		&emergency.UpdatedAt,
		&emergency.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return emergency, nil
}

// Create создает новую запись об экстренном случае в бд
func (r *EmergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	query := `
		INSERT INTO emergencies (type, severity, address, location, description, reporter, status, responders, number_of_people, images)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		emergency.Type,
		emergency.Severity,
		emergency.Location.Address,
		emergency.Location.Longitude,
		emergency.Location.Latitude,
		emergency.Description,
		emergency.Reporter,
		emergency.Status,
		emergency.Responders,
		emergency.NumberOfPeople,
		emergency.Images,
	).Scan(&emergency.ID, &emergency.CreatedAt, &emergency.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}
	return nil
}

// GetByID возвращает экстренный случай по его UUID
func (r *EmergencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Emergency, error) {
	query := `SELECT ` + emergencyColumns + ` FROM emergencies WHERE id = $1;`
	emergency, err := scanEmergency(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get emergency by id: %w", err)
	}
	return emergency, nil
}

// List возвращает случаи в порядке убывания времени создания.
// При непустом списке статусов выборка ограничивается ими.
func (r *EmergencyRepository) List(ctx context.Context, statuses []models.Status, limit int) ([]*models.Emergency, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(statuses) > 0 {
		filter := make([]string, len(statuses))
		for i, s := range statuses {
			filter[i] = string(s)
		}
		query := `SELECT ` + emergencyColumns + ` FROM emergencies WHERE status = ANY($1) ORDER BY created_at DESC LIMIT $2;`
		rows, err = r.db.Query(ctx, query, filter, limit)
	} else {
		query := `SELECT ` + emergencyColumns + ` FROM emergencies ORDER BY created_at DESC LIMIT $1;`
		rows, err = r.db.Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list emergencies: %w", err)
	}
	defer rows.Close()

	emergencies := make([]*models.Emergency, 0)
	for rows.Next() {
		emergency, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emergency row: %w", err)
		}
		emergencies = append(emergencies, emergency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return emergencies, nil
}

// UpdateStatus атомарно выполняет переход статуса: чтение текущего статуса
// с блокировкой строки, проверка таблицы переходов, запись нового статуса.
// Конкурирующий вызов на том же id ждет блокировку и перечитывает уже
// зафиксированный статус, поэтому проверка никогда не видит устаревшее состояние.
func (r *EmergencyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Emergency, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin status update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current models.Status
	err = tx.QueryRow(ctx, `SELECT status FROM emergencies WHERE id = $1 FOR UPDATE;`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read current status: %w", err)
	}

	if !models.CanTransition(current, status) {
		return nil, &models.InvalidTransitionError{From: current, To: status}
	}

	query := `
		UPDATE emergencies SET
			status = $1,
			resolved_at = CASE WHEN $1 = 'resolved' THEN NOW() ELSE resolved_at END,
			updated_at = NOW()
		WHERE id = $2
		RETURNING ` + emergencyColumns + `;`
	emergency, err := scanEmergency(tx.QueryRow(ctx, query, status, id))
	if err != nil {
		return nil, fmt.Errorf("failed to update emergency status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return emergency, nil
}

// FindNearby находит активные случаи, попадающие в радиус от точки
func (r *EmergencyRepository) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]*models.Emergency, error) {
	query := `
		SELECT ` + emergencyColumns + `
		FROM emergencies
		WHERE
			status IN ('reported', 'dispatched', 'in-progress')
			AND ST_DWithin(
				location,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				$3
			)
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, lng, lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby emergencies: %w", err)
	}
	defer rows.Close()

	emergencies := make([]*models.Emergency, 0)
	for rows.Next() {
		emergency, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emergency row in FindNearby: %w", err)
		}
		emergencies = append(emergencies, emergency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in FindNearby: %w", err)
	}
	return emergencies, nil
}

// CountByStatus возвращает количество случаев по каждому статусу
func (r *EmergencyRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM emergencies GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("failed to count emergencies by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status models.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error stats iteration: %w", err)
	}
	return counts, nil
}

// GetEmergencyFromCache пытается получить случай из Redis
func (r *EmergencyRepository) GetEmergencyFromCache(ctx context.Context, id uuid.UUID) (*models.Emergency, error) {
	key := fmt.Sprintf("emergency:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get emergency from cache: %w", err)
	}

	emergency := &models.Emergency{}
	if err := json.Unmarshal(val, emergency); err != nil {
		return nil, fmt.Errorf("failed to unmarshal emergency from cache: %w", err)
	}
	return emergency, nil
}

// SetEmergencyCache сохраняет случай в Redis
func (r *EmergencyRepository) SetEmergencyCache(ctx context.Context, emergency *models.Emergency) error {
	key := fmt.Sprintf("emergency:%s", emergency.ID.String())
	val, err := json.Marshal(emergency)
	if err != nil {
		return fmt.Errorf("failed to marshal emergency for cache: %w", err)
	}
	// Срок жизни кэша 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set emergency in cache: %w", err)
	}
	return nil
}

// InvalidateEmergencyCache удаляет случай из Redis кэша
func (r *EmergencyRepository) InvalidateEmergencyCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("emergency:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate emergency cache: %w", err)
	}
	return nil
}
