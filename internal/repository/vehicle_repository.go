package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stage-analytics-service/internal/model"
)

// stageEvents is the jsonb column holding a vehicle's event log. A log that
// does not decode leaves events empty and sets decodeErr.
type stageEvents struct {
	events    []model.StageEvent
	decodeErr error
}

func (s stageEvents) Value() (driver.Value, error) {
	if s.events == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s.events)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *stageEvents) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = stageEvents{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported stages column type %T", src)
	}
	var events []model.StageEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		*s = stageEvents{decodeErr: fmt.Errorf("decode stages: %w", err)}
		return nil
	}
	*s = stageEvents{events: events}
	return nil
}

type vehicleRecord struct {
	ID            uint64      `gorm:"column:id;primaryKey"`
	VehicleNumber string      `gorm:"column:vehicle_number"`
	EntryTime     time.Time   `gorm:"column:entry_time"`
	ExitTime      *time.Time  `gorm:"column:exit_time"`
	Stages        stageEvents `gorm:"column:stages;type:jsonb"`
}

func (vehicleRecord) TableName() string {
	return "vehicles"
}

func (r vehicleRecord) toModel() model.Vehicle {
	vehicle := model.Vehicle{
		VehicleNumber: r.VehicleNumber,
		EntryTime:     r.EntryTime,
		ExitTime:      r.ExitTime,
		Stages:        r.Stages.events,
	}
	if r.Stages.decodeErr != nil {
		vehicle.LoadError = r.Stages.decodeErr.Error()
	}
	return vehicle
}

const eventsBetweenClause = `EXISTS (
	SELECT 1 FROM jsonb_array_elements(v.stages) AS s
	WHERE (s->>'timestamp')::timestamptz >= ? AND (s->>'timestamp')::timestamptz < ?
)`

// VehicleRepository reads vehicles and their embedded event logs from PostgreSQL.
type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) VehiclesWithEventsBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where(eventsBetweenClause, from, to)
	})
}

func (r *VehicleRepository) VehiclesEnteredBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("v.entry_time >= ? AND v.entry_time < ?", from, to)
	})
}

func (r *VehicleRepository) ActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("v.exit_time IS NULL")
	})
}

func (r *VehicleRepository) VehiclesTouching(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"(v.entry_time >= ? AND v.entry_time < ?) OR (v.exit_time >= ? AND v.exit_time < ?) OR "+eventsBetweenClause,
			from, to, from, to, from, to,
		)
	})
}

func (r *VehicleRepository) VehicleByNumber(ctx context.Context, vehicleNumber string) (*model.Vehicle, error) {
	var record vehicleRecord
	err := r.db.WithContext(ctx).
		Table("vehicles v").
		Where("v.vehicle_number = ?", vehicleNumber).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("load vehicle %s: %w", vehicleNumber, err)
	}
	vehicle := record.toModel()
	return &vehicle, nil
}

func (r *VehicleRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]model.Vehicle, error) {
	var records []vehicleRecord
	query := r.db.WithContext(ctx).
		Table("vehicles v").
		Select("v.id, v.vehicle_number, v.entry_time, v.exit_time, v.stages").
		Order("v.entry_time ASC, v.vehicle_number ASC")
	query = scope(query)

	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}

	vehicles := make([]model.Vehicle, 0, len(records))
	for _, record := range records {
		vehicles = append(vehicles, record.toModel())
	}
	return vehicles, nil
}
