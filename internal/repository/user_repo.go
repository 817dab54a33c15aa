package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// ErrDuplicateEmail indicates an email already owned by another account.
var ErrDuplicateEmail = errors.New("email already registered")

// UserFilter defines filters for listing accounts from the admin panel.
type UserFilter struct {
	Search     string
	Role       string
	Department string
	Active     *bool
	Sort       string
	Page       int
	PageSize   int
}

// UserDeletion reports the side effects of removing an account.
type UserDeletion struct {
	ActivitiesDeleted int64
	ReviewsUnassigned int64
}

// UserRepository exposes persistence helpers for account management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	ListStudents(ctx context.Context, department string) ([]models.User, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error)
	Delete(ctx context.Context, user models.User) (UserDeletion, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := filter.Sort
	if sort == "" {
		sort = "created_at DESC"
	}
	query = query.Order(sort).Order("id ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListStudents(ctx context.Context, department string) ([]models.User, error) {
	query := r.db.WithContext(ctx).Where("role = ?", models.RoleStudent)
	if department != "" {
		query = query.Where("department = ?", department)
	}

	var students []models.User
	if err := query.Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error) {
	if email, ok := updates["email"].(string); ok {
		email = normalizeEmail(email)
		updates["email"] = email

		existing, err := r.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != id:
			return models.User{}, ErrDuplicateEmail
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return models.User{}, err
		}
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, result.Error
	}

	return r.GetByID(ctx, id)
}

// Delete removes the account in one transaction. A student's activities go with it;
// activities the user reviewed keep their outcome but lose the approver reference.
func (r *userRepository) Delete(ctx context.Context, user models.User) (UserDeletion, error) {
	var outcome UserDeletion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unassigned := tx.Model(&models.Activity{}).
			Where("approver_id = ?", user.ID).
			Update("approver_id", nil)
		if unassigned.Error != nil {
			return unassigned.Error
		}
		outcome.ReviewsUnassigned = unassigned.RowsAffected

		removed := tx.Where("student_id = ?", user.ID).Delete(&models.Activity{})
		if removed.Error != nil {
			return removed.Error
		}
		outcome.ActivitiesDeleted = removed.RowsAffected

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		deleted := tx.Delete(&models.User{}, user.ID)
		if deleted.Error != nil {
			return deleted.Error
		}
		if deleted.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return UserDeletion{}, err
	}
	return outcome, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
