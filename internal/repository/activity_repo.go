package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// ActivityFilter narrows activity queries. Zero values are ignored.
type ActivityFilter struct {
	StudentID  *uint
	ApproverID *uint
	Status     string
	Type       string
	Department string
	DateFrom   *time.Time
	DateBefore *time.Time
	Sort       string
	Page       int
	PageSize   int
}

// ActivityRepository persists activities and their review transitions.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Review(ctx context.Context, activity *models.Activity) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit("Student", "Approver").Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Approver").
		First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := applyActivityFilter(r.db.WithContext(ctx).Model(&models.Activity{}), filter)

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := filter.Sort
	if sort == "" {
		sort = "activities.created_at DESC"
	}
	query = query.Order(sort).Order("activities.id ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var activities []models.Activity
	if err := query.Preload("Student").Preload("Approver").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

// Review persists a status transition only if the row is still pending. A row that
// was resolved in the meantime yields models.ErrActivityNotPending.
func (r *activityRepository) Review(ctx context.Context, activity *models.Activity) error {
	updates := map[string]interface{}{
		"status":      activity.Status,
		"credits":     activity.Credits,
		"remarks":     activity.Remarks,
		"approver_id": activity.ApproverID,
		"reviewed_at": activity.ReviewedAt,
		"updated_at":  activity.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", activity.ID).
		Where("status = ?", models.ActivityStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", activity.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return models.ErrActivityNotPending
	}

	return nil
}

func applyActivityFilter(query *gorm.DB, filter ActivityFilter) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("activities.student_id = ?", *filter.StudentID)
	}
	if filter.ApproverID != nil {
		query = query.Where("activities.approver_id = ?", *filter.ApproverID)
	}
	if filter.Status != "" {
		query = query.Where("activities.status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("activities.type = ?", filter.Type)
	}
	if filter.DateFrom != nil {
		query = query.Where("activities.date >= ?", *filter.DateFrom)
	}
	if filter.DateBefore != nil {
		query = query.Where("activities.date < ?", *filter.DateBefore)
	}
	if filter.Department != "" {
		query = query.
			Joins("JOIN users ON users.id = activities.student_id").
			Where("users.department = ?", filter.Department)
	}
	return query
}

// IsNotFound reports whether err denotes a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
