package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/auth"
)

// Repository defines the data access methods for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)
}

// Credentials is the slice of the auth service this package depends on.
type Credentials interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
}

type Service struct {
	repo   Repository
	creds  Credentials
	logger *slog.Logger
}

func NewService(repo Repository, creds Credentials, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		creds:  creds,
		logger: logger,
	}
}

// Register creates an account. The admin role can never be self-assigned;
// anything but an explicit "employer" request becomes a student account.
func (s *Service) Register(ctx context.Context, dto SignupDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, dto.Email); err == nil {
		s.logger.Warn("registration rejected: duplicate email", "email", dto.Email)
		return nil, internal.NewConflictError("User already exists with this email", internal.ErrCodeEmailTaken)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, internal.NewInternalError("Server error during registration", err)
	}

	hash, err := s.creds.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("Server error during registration", err)
	}

	u := &User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         dto.EffectiveRole(),
		Phone:        dto.Phone,
		Company:      dto.Company,
		Location:     dto.Location,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, internal.NewInternalError("Server error during registration", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)

	return u, nil
}

// Authenticate verifies credentials. Unknown email and wrong password yield
// the identical error so the response never leaks account existence.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	invalid := internal.NewUnauthorizedError("Invalid credentials", internal.ErrCodeInvalidCredentials)

	u, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid
		}
		return nil, internal.NewInternalError("Server error during login", err)
	}

	if !s.creds.CheckPassword(u.PasswordHash, dto.Password) {
		return nil, invalid
	}

	s.logger.Info("user authenticated", "user_id", u.ID)

	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
		}
		return nil, internal.NewInternalError("Server error fetching profile", err)
	}
	return u, nil
}

// UpdateProfile applies partial updates; fields not supplied are left
// unchanged. Email and role are not updatable through this operation.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto.ApplyTo(u)

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, internal.NewInternalError("Server error updating profile", err)
	}

	s.logger.Info("profile updated", "user_id", u.ID)

	return u, nil
}

// ChangePassword rotates the stored hash after verifying the current
// password. The caller is expected to issue a fresh session credential.
func (s *Service) ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.creds.CheckPassword(u.PasswordHash, dto.CurrentPassword) {
		return nil, internal.NewUnauthorizedError("Current password is incorrect", internal.ErrCodeWrongPassword)
	}

	hash, err := s.creds.HashPassword(dto.NewPassword)
	if err != nil {
		return nil, internal.NewInternalError("Server error updating password", err)
	}

	u.PasswordHash = hash
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, internal.NewInternalError("Server error updating password", err)
	}

	s.logger.Info("password changed", "user_id", u.ID)

	return u, nil
}

const (
	maxPageSize     = 100
	defaultPageSize = 10
)

// ListUsers returns one page of public profiles for the admin listing.
// Page and limit are clamped to sane bounds, limit to at most 100.
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]*User, int64, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, total, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, 0, 0, internal.NewInternalError("Server error fetching users", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return users, total, page, totalPages, nil
}

// LoadIdentity satisfies auth.IdentityLoader so the middleware resolves
// token subjects against live account state.
func (s *Service) LoadIdentity(ctx context.Context, userID int64) (*auth.Identity, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}
