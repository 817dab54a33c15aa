package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uint]models.User
	next  uint

	activities *memoryActivityRepo
}

func newMemoryUserRepo(users ...models.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: map[uint]models.User{}}
	for _, user := range users {
		if user.ID > repo.next {
			repo.next = user.ID
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.next++
	user.ID = m.next
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == strings.ToLower(strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, user := range m.users {
		if filter.Role != "" && string(user.Role) != filter.Role {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memoryUserRepo) ListStudents(ctx context.Context, department string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, user := range m.users {
		if user.Role != models.RoleStudent {
			continue
		}
		if department != "" && user.Department != department {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryUserRepo) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error) {
	m.mu.Lock()
	user, ok := m.users[id]
	if !ok {
		m.mu.Unlock()
		return models.User{}, gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		switch column {
		case "name":
			user.Name = value.(string)
		case "email":
			email := strings.ToLower(value.(string))
			for _, other := range m.users {
				if other.ID != id && other.Email == email {
					m.mu.Unlock()
					return models.User{}, repository.ErrDuplicateEmail
				}
			}
			user.Email = email
		case "department":
			user.Department = value.(string)
		case "phone":
			user.Phone = value.(string)
		case "designation":
			user.Designation = value.(string)
		case "student_number":
			user.StudentNumber = value.(string)
		case "year":
			year := value.(int)
			user.Year = &year
		case "is_active":
			user.IsActive = value.(bool)
		}
	}
	m.users[id] = user
	m.mu.Unlock()
	return user, nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, user models.User) (repository.UserDeletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.UserDeletion{}, gorm.ErrRecordNotFound
	}
	delete(m.users, user.ID)

	var outcome repository.UserDeletion
	if m.activities != nil {
		outcome = m.activities.removeUser(user.ID)
	}
	return outcome, nil
}

type memoryActivityRepo struct {
	mu         sync.Mutex
	items      map[uint]models.Activity
	next       uint
	users      *memoryUserRepo
	listCalls  int
	beforeSave func()
	createErr  error
}

func newMemoryActivityRepo(users *memoryUserRepo) *memoryActivityRepo {
	repo := &memoryActivityRepo{items: map[uint]models.Activity{}, users: users}
	if users != nil {
		users.activities = repo
	}
	return repo
}

func (m *memoryActivityRepo) seed(activity models.Activity) models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	activity.ID = m.next
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	m.items[activity.ID] = activity
	return activity
}

func (m *memoryActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if m.createErr != nil {
		return m.createErr
	}
	*activity = m.seed(*activity)
	return nil
}

func (m *memoryActivityRepo) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	m.mu.Lock()
	activity, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return models.Activity{}, gorm.ErrRecordNotFound
	}
	return m.hydrate(activity), nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	m.mu.Lock()
	m.listCalls++
	var out []models.Activity
	for _, activity := range m.items {
		if filter.StudentID != nil && activity.StudentID != *filter.StudentID {
			continue
		}
		if filter.ApproverID != nil && (activity.ApproverID == nil || *activity.ApproverID != *filter.ApproverID) {
			continue
		}
		if filter.Status != "" && string(activity.Status) != filter.Status {
			continue
		}
		if filter.Type != "" && string(activity.Type) != filter.Type {
			continue
		}
		if filter.DateFrom != nil && activity.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateBefore != nil && !activity.Date.Before(*filter.DateBefore) {
			continue
		}
		out = append(out, activity)
	}
	m.mu.Unlock()

	if filter.Department != "" {
		filtered := out[:0]
		for _, activity := range out {
			if m.users != nil {
				if student, err := m.users.GetByID(ctx, activity.StudentID); err == nil && student.Department == filter.Department {
					filtered = append(filtered, activity)
				}
			}
		}
		out = filtered
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := range out {
		out[i] = m.hydrate(out[i])
	}
	return out, int64(len(out)), nil
}

func (m *memoryActivityRepo) Review(ctx context.Context, activity *models.Activity) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[activity.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Status != models.ActivityStatusPending {
		return models.ErrActivityNotPending
	}
	stored.Status = activity.Status
	stored.Credits = activity.Credits
	stored.Remarks = activity.Remarks
	stored.ApproverID = activity.ApproverID
	stored.ReviewedAt = activity.ReviewedAt
	stored.UpdatedAt = activity.UpdatedAt
	m.items[activity.ID] = stored
	return nil
}

func (m *memoryActivityRepo) removeUser(userID uint) repository.UserDeletion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var outcome repository.UserDeletion
	for id, activity := range m.items {
		if activity.StudentID == userID {
			delete(m.items, id)
			outcome.ActivitiesDeleted++
			continue
		}
		if activity.ApproverID != nil && *activity.ApproverID == userID {
			activity.ApproverID = nil
			m.items[id] = activity
			outcome.ReviewsUnassigned++
		}
	}
	return outcome
}

func (m *memoryActivityRepo) hydrate(activity models.Activity) models.Activity {
	if m.users == nil {
		return activity
	}
	if student, err := m.users.GetByID(context.Background(), activity.StudentID); err == nil {
		activity.Student = &student
	}
	if activity.ApproverID != nil {
		if approver, err := m.users.GetByID(context.Background(), *activity.ApproverID); err == nil {
			activity.Approver = &approver
		}
	}
	return activity
}

type memoryAuditRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (m *memoryAuditRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAuditRepo) List(ctx context.Context, filter repository.AuditLogFilter) ([]models.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivityLog
	for _, entry := range m.entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

func (m *memoryAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry.Action)
	}
	return out
}

type cacheSpy struct {
	mu          sync.Mutex
	invalidated int
}

func (c *cacheSpy) InvalidateStatistics(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
}

func intPtr(v int) *int {
	return &v
}

var (
	_ repository.ActivityRepository = (*memoryActivityRepo)(nil)
	_ repository.UserRepository     = (*memoryUserRepo)(nil)
	_ repository.AuditLogRepository = (*memoryAuditRepo)(nil)
)
