package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

var (
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAdminProtected indicates an attempt to deactivate or delete an admin account.
	ErrAdminProtected = errors.New("admin accounts cannot be deactivated or deleted")
	// ErrSelfDeletion indicates a caller tried to delete their own account.
	ErrSelfDeletion = errors.New("you cannot delete your own account")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnknownRole indicates a role filter outside student, faculty and admin.
	ErrUnknownRole = errors.New("unknown role")
)

// UserService orchestrates admin account management and profile lookups.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	Create(ctx context.Context, payload dto.UserCreateRequest, actor Actor) (dto.UserResponse, error)
	Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor Actor) (dto.UserResponse, error)
	SetStatus(ctx context.Context, id uint, payload dto.UserStatusRequest, actor Actor) (dto.UserResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) (dto.UserDeleteResponse, error)
	Profile(ctx context.Context, actor Actor) (dto.ProfileResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	audit     AuditRecorder
	cache     ReportCache
	logger    zerolog.Logger
	hashCost  int
}

// NewUserService constructs the user management service.
func NewUserService(repo repository.UserRepository, validate *validator.Validate, audit AuditRecorder, cache ReportCache, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: validate,
		audit:     audit,
		cache:     cache,
		logger:    logger.With().Str("component", "user_service").Logger(),
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != "" {
		if _, ok := models.ParseUserRole(role); !ok {
			return dto.UserListResponse{}, fmt.Errorf("%w %q", ErrUnknownRole, req.Role)
		}
	}

	users, total, err := s.repo.List(ctx, repository.UserFilter{
		Search:     strings.TrimSpace(req.Search),
		Role:       role,
		Department: strings.TrimSpace(req.Department),
		Active:     req.Active,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}

	return dto.UserListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Create(ctx context.Context, payload dto.UserCreateRequest, actor Actor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	role, _ := models.ParseUserRole(payload.Role)
	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.hashCost)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        strings.TrimSpace(payload.Email),
		PasswordHash: string(hash),
		Role:         role,
		Department:   strings.TrimSpace(payload.Department),
		Phone:        strings.TrimSpace(payload.Phone),
		IsActive:     true,
	}
	switch role {
	case models.RoleStudent:
		user.Year = payload.Year
		user.StudentNumber = strings.TrimSpace(payload.StudentID)
	case models.RoleFaculty:
		user.Designation = strings.TrimSpace(payload.Designation)
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     AuditUserCreated,
		EntityType: "user",
		EntityID:   &user.ID,
		Metadata: map[string]interface{}{
			"role":  string(user.Role),
			"email": user.Email,
		},
	})
	s.invalidate(ctx, user.Role)

	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor Actor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)
	set := func(column string, value interface{}) {
		updates[column] = value
		changedFields = append(changedFields, column)
	}

	if payload.Name != nil {
		set("name", strings.TrimSpace(*payload.Name))
	}
	if payload.Email != nil {
		set("email", strings.TrimSpace(*payload.Email))
	}
	if payload.Department != nil {
		set("department", strings.TrimSpace(*payload.Department))
	}
	if payload.Phone != nil {
		set("phone", strings.TrimSpace(*payload.Phone))
	}
	if current.Role == models.RoleStudent {
		if payload.Year != nil {
			set("year", *payload.Year)
		}
		if payload.StudentID != nil {
			set("student_number", strings.TrimSpace(*payload.StudentID))
		}
	}
	if current.Role == models.RoleFaculty && payload.Designation != nil {
		set("designation", strings.TrimSpace(*payload.Designation))
	}

	if len(updates) == 0 {
		return dto.NewUserResponse(current), nil
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return dto.UserResponse{}, ErrEmailTaken
		case repository.IsNotFound(err):
			return dto.UserResponse{}, ErrUserNotFound
		default:
			return dto.UserResponse{}, err
		}
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     AuditUserUpdated,
		EntityType: "user",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"fields": changedFields},
	})
	s.invalidate(ctx, user.Role)

	return dto.NewUserResponse(user), nil
}

func (s *userService) SetStatus(ctx context.Context, id uint, payload dto.UserStatusRequest, actor Actor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	active := *payload.IsActive
	if current.IsAdmin() && !active {
		return dto.UserResponse{}, ErrAdminProtected
	}
	if current.IsActive == active {
		return dto.NewUserResponse(current), nil
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": active})
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	action := AuditUserDeactivated
	if active {
		action = AuditUserActivated
	}
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "user",
		EntityID:   &id,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id uint, actor Actor) (dto.UserDeleteResponse, error) {
	if id == actor.ID {
		return dto.UserDeleteResponse{}, ErrSelfDeletion
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserDeleteResponse{}, err
	}
	if user.IsAdmin() {
		return dto.UserDeleteResponse{}, ErrAdminProtected
	}

	outcome, err := s.repo.Delete(ctx, user)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.UserDeleteResponse{}, ErrUserNotFound
		}
		return dto.UserDeleteResponse{}, fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info().
		Uint("user_id", id).
		Str("role", string(user.Role)).
		Int64("activities_deleted", outcome.ActivitiesDeleted).
		Int64("reviews_unassigned", outcome.ReviewsUnassigned).
		Msg("user deleted")

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     AuditUserDeleted,
		EntityType: "user",
		EntityID:   &id,
		Metadata: map[string]interface{}{
			"role":               string(user.Role),
			"activities_deleted": outcome.ActivitiesDeleted,
			"reviews_unassigned": outcome.ReviewsUnassigned,
		},
	})
	if s.cache != nil {
		s.cache.InvalidateStatistics(ctx)
	}

	return dto.UserDeleteResponse{
		ID:                id,
		Role:              string(user.Role),
		ActivitiesDeleted: outcome.ActivitiesDeleted,
		ReviewsUnassigned: outcome.ReviewsUnassigned,
	}, nil
}

func (s *userService) Profile(ctx context.Context, actor Actor) (dto.ProfileResponse, error) {
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}
	return dto.NewProfileResponse(user), nil
}

func (s *userService) load(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// invalidate drops cached statistics when the student population changes.
func (s *userService) invalidate(ctx context.Context, role models.UserRole) {
	if s.cache != nil && role == models.RoleStudent {
		s.cache.InvalidateStatistics(ctx)
	}
}
