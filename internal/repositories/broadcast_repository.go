package repositories

import (
	"errors"

	"gorm.io/gorm"

	"talentvault_backend/internal/models"
)

var ErrBroadcastNotFound = errors.New("broadcast not found")

type BroadcastRepository interface {
	Create(broadcast *models.Broadcast) error
	FindByID(id string) (*models.Broadcast, error)
	FindRecent(limit int) ([]models.Broadcast, error)
}

type BroadcastRepositoryImpl struct {
	db *gorm.DB
}

func NewBroadcastRepository(db *gorm.DB) BroadcastRepository {
	return &BroadcastRepositoryImpl{db: db}
}

func (r *BroadcastRepositoryImpl) Create(broadcast *models.Broadcast) error {
	return r.db.Create(broadcast).Error
}

func (r *BroadcastRepositoryImpl) FindByID(id string) (*models.Broadcast, error) {
	var broadcast models.Broadcast
	err := r.db.First(&broadcast, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBroadcastNotFound
		}
		return nil, err
	}
	return &broadcast, nil
}

func (r *BroadcastRepositoryImpl) FindRecent(limit int) ([]models.Broadcast, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var broadcasts []models.Broadcast
	err := r.db.Order("created_at DESC").Limit(limit).Find(&broadcasts).Error
	return broadcasts, err
}
