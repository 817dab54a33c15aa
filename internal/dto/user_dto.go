package dto

import (
	"time"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// UserListRequest defines filters for listing users from the admin panel.
type UserListRequest struct {
	Page       int
	PageSize   int
	Search     string
	Role       string
	Department string
	Active     *bool
}

// UserCreateRequest captures the payload for creating a user account.
type UserCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,oneof=student faculty admin"`
	Department  string `json:"department" validate:"omitempty,max=128"`
	Year        *int   `json:"year" validate:"omitempty,gte=1,lte=6"`
	StudentID   string `json:"student_id" validate:"omitempty,max=64"`
	Designation string `json:"designation" validate:"omitempty,max=128"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
}

// UserUpdateRequest captures partial update payloads for users.
type UserUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Department  *string `json:"department" validate:"omitempty,max=128"`
	Year        *int    `json:"year" validate:"omitempty,gte=1,lte=6"`
	StudentID   *string `json:"student_id" validate:"omitempty,max=64"`
	Designation *string `json:"designation" validate:"omitempty,max=128"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
}

// UserStatusRequest toggles login eligibility.
type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// UserResponse serializes user data.
type UserResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Department  string    `json:"department"`
	Year        *int      `json:"year,omitempty"`
	StudentID   string    `json:"student_id,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserListResponse wraps a paginated user response.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// UserDeleteResponse reports what a deletion removed or detached.
type UserDeleteResponse struct {
	ID                uint   `json:"id"`
	Role              string `json:"role"`
	ActivitiesDeleted int64  `json:"activities_deleted"`
	ReviewsUnassigned int64  `json:"reviews_unassigned"`
}

// ProfileResponse is the caller's own profile with completion percentage.
type ProfileResponse struct {
	UserResponse
	ProfileCompletion int `json:"profile_completion"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        string(user.Role),
		Department:  user.Department,
		Year:        user.Year,
		StudentID:   user.StudentNumber,
		Designation: user.Designation,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// NewProfileResponse builds the profile view of a user.
func NewProfileResponse(user models.User) ProfileResponse {
	return ProfileResponse{
		UserResponse:      NewUserResponse(user),
		ProfileCompletion: user.ProfileCompletion(),
	}
}
