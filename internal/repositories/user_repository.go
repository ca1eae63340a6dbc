package repositories

import (
	"errors"

	"gorm.io/gorm"

	"talentvault_backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// RoleCount is one row of the per-role population breakdown used by the
// broadcast composer's count preview.
type RoleCount struct {
	Role  models.UserRole `json:"role"`
	Count int64           `json:"count"`
}

type UserRepository interface {
	Create(user *models.User) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByIDs(ids []string) ([]models.User, error)
	FindByRole(role models.UserRole) ([]models.User, error)
	FindAllActive() ([]models.User, error)
	CountAll() (int64, error)
	CountByRole() ([]RoleCount, error)
	Search(query string, limit int, excludeIDs []string) ([]models.User, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDs(ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) FindByRole(role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ? AND status = ?", role, models.UserStatusActive).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) FindAllActive() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("status = ?", models.UserStatusActive).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) CountByRole() ([]RoleCount, error) {
	var counts []RoleCount
	err := r.db.Model(&models.User{}).
		Select("role, count(*) as count").
		Where("status = ?", models.UserStatusActive).
		Group("role").
		Scan(&counts).Error
	return counts, err
}

// Search finds active users by email or display name prefix match,
// excluding the given ids (already-selected recipients in the composer).
func (r *UserRepositoryImpl) Search(query string, limit int, excludeIDs []string) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	q := r.db.Where("status = ?", models.UserStatusActive)
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("email LIKE ? OR display_name LIKE ?", pattern, pattern)
	}
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var users []models.User
	err := q.Limit(limit).Order("display_name").Find(&users).Error
	return users, err
}
