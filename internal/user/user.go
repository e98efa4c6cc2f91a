package user

import (
	"errors"
	"strings"
	"time"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/auth"
)

// User is the account entity. The password hash is write-only: it never
// appears in read responses and is only loaded for verification.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Role         string    `json:"role" gorm:"default:student"`
	Phone        string    `json:"phone"`
	Bio          string    `json:"bio"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Summary is the short projection returned by signup and login.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Profile is the full public projection; no credential material.
type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		Bio:       u.Bio,
		Company:   u.Company,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) Identity() *auth.Identity {
	return &auth.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

var ErrNotFound = errors.New("user not found")

// SignupDTO is the registration payload. Only student and employer may be
// requested; any other role value degrades to student.
type SignupDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

func (dto SignupDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewValidationError("Name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Email) == "" || !strings.Contains(dto.Email, "@") {
		return internal.NewValidationError("A valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 6 {
		return internal.NewValidationError("Password must be at least 6 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// EffectiveRole resolves the role the new account actually gets.
func (dto SignupDTO) EffectiveRole() string {
	if dto.Role == auth.RoleStudent || dto.Role == auth.RoleEmployer {
		return dto.Role
	}
	return auth.RoleStudent
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Email == "" || dto.Password == "" {
		return internal.NewValidationError("Please provide email and password", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateProfileDTO carries partial updates. Pointer fields distinguish an
// absent key from an explicit empty string: name is only applied when
// non-empty, the rest whenever the key is present.
type UpdateProfileDTO struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
	Company  *string `json:"company"`
	Location *string `json:"location"`
}

func (dto UpdateProfileDTO) ApplyTo(u *User) {
	if dto.Name != nil && *dto.Name != "" {
		u.Name = *dto.Name
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.Bio != nil {
		u.Bio = *dto.Bio
	}
	if dto.Company != nil {
		u.Company = *dto.Company
	}
	if dto.Location != nil {
		u.Location = *dto.Location
	}
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (dto ChangePasswordDTO) Validate() error {
	if dto.CurrentPassword == "" || dto.NewPassword == "" {
		return internal.NewValidationError("Please provide current and new password", internal.ErrCodeValidationFailed)
	}
	if len(dto.NewPassword) < 6 {
		return internal.NewValidationError("Password must be at least 6 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
