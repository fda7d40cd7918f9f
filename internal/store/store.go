package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"facility-asset-backend/internal/model"
)

// ErrNotFound is returned when a lookup targets an unknown record.
var ErrNotFound = errors.New("record not found")

// Store defines the database operations the API surface and the
// notification worker need outside the procurement service.
type Store interface {
	DB() *gorm.DB

	ListRooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room) error

	ListDevices(ctx context.Context) ([]model.Device, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)

	ReplaceSubscription(ctx context.Context, sub *model.PushSubscription, departments []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *gormStore) CreateRoom(ctx context.Context, room *model.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Preload("Room").Order("id ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).Preload("Room").First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

// ReplaceSubscription upserts the subscription row and replaces its
// department bindings. Departments are created lazily on first reference.
func (s *gormStore) ReplaceSubscription(ctx context.Context, sub *model.PushSubscription, departments []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return err
		}

		rows := make([]*model.Department, 0, len(departments))
		for _, name := range departments {
			if name == "" {
				continue
			}
			department := model.Department{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&department).Error; err != nil {
				return fmt.Errorf("failed to resolve department %q: %w", name, err)
			}
			rows = append(rows, &department)
		}

		return tx.Model(sub).Association("Departments").Replace(rows)
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Departments").First(&sub, "endpoint = ?", endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
