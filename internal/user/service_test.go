package user_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

// MockRepository implements user.Repository in memory.
type MockRepository struct {
	users      map[int64]*user.User
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:  make(map[int64]*user.User),
		nextID: 1,
	}
}

func (m *MockRepository) Create(_ context.Context, u *user.User) error {
	if m.shouldFail {
		return m.failError
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *MockRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *MockRepository) Update(_ context.Context, u *user.User) error {
	if m.shouldFail {
		return m.failError
	}
	m.users[u.ID] = u
	return nil
}

func (m *MockRepository) List(_ context.Context, limit, offset int) ([]*user.User, int64, error) {
	if m.shouldFail {
		return nil, 0, m.failError
	}
	all := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

// fakeCredentials avoids bcrypt cost in service tests.
type fakeCredentials struct{}

func (fakeCredentials) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeCredentials) CheckPassword(hash, password string) bool {
	return hash == "hashed:"+password
}

var _ = Describe("User Service", func() {
	var (
		mockRepo *MockRepository
		service  *user.Service
		ctx      context.Context
	)

	signup := func(email string) *user.User {
		u, err := service.Register(ctx, user.SignupDTO{
			Name:     "Some User",
			Email:    email,
			Password: "secret123",
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, fakeCredentials{}, lg)
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("should create a student account by default", func() {
			u := signup("student@mail.com")
			Expect(u.ID).NotTo(BeZero())
			Expect(u.Role).To(Equal(auth.RoleStudent))
			Expect(u.PasswordHash).To(Equal("hashed:secret123"))
		})

		It("should honor an explicit employer role", func() {
			u, err := service.Register(ctx, user.SignupDTO{
				Name:     "Recruiter",
				Email:    "recruiter@mail.com",
				Password: "secret123",
				Role:     auth.RoleEmployer,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleEmployer))
		})

		It("should never allow self-assigned admin", func() {
			u, err := service.Register(ctx, user.SignupDTO{
				Name:     "Sneaky",
				Email:    "sneaky@mail.com",
				Password: "secret123",
				Role:     auth.RoleAdmin,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleStudent))
		})

		It("should reject a duplicate email with a conflict", func() {
			signup("dup@mail.com")

			_, err := service.Register(ctx, user.SignupDTO{
				Name:     "Second",
				Email:    "dup@mail.com",
				Password: "different1",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
			Expect(appErr.Message).To(Equal("User already exists with this email"))
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should reject a short password", func() {
			_, err := service.Register(ctx, user.SignupDTO{
				Name:     "Short",
				Email:    "short@mail.com",
				Password: "abc",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			signup("login@mail.com")
		})

		It("should authenticate with the registered password", func() {
			u, err := service.Authenticate(ctx, user.LoginDTO{
				Email:    "login@mail.com",
				Password: "secret123",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("login@mail.com"))
		})

		It("should return identical errors for unknown email and wrong password", func() {
			_, unknownErr := service.Authenticate(ctx, user.LoginDTO{
				Email:    "nobody@mail.com",
				Password: "secret123",
			})
			_, wrongErr := service.Authenticate(ctx, user.LoginDTO{
				Email:    "login@mail.com",
				Password: "wrong-password",
			})

			unknown, ok := internal.IsAppError(unknownErr)
			Expect(ok).To(BeTrue())
			wrong, ok := internal.IsAppError(wrongErr)
			Expect(ok).To(BeTrue())

			Expect(unknown.Message).To(Equal(wrong.Message))
			Expect(unknown.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(wrong.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should require both email and password", func() {
			_, err := service.Authenticate(ctx, user.LoginDTO{Email: "login@mail.com"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("Please provide email and password"))
		})
	})

	Describe("UpdateProfile", func() {
		It("should change only the supplied fields", func() {
			u := signup("profile@mail.com")
			bio := "Backend enthusiast"

			updated, err := service.UpdateProfile(ctx, u.ID, user.UpdateProfileDTO{Bio: &bio})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Bio).To(Equal("Backend enthusiast"))
			Expect(updated.Name).To(Equal("Some User"))
			Expect(updated.Email).To(Equal("profile@mail.com"))
		})

		It("should fail with not found for an unknown user", func() {
			_, err := service.UpdateProfile(ctx, 999, user.UpdateProfileDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
			Expect(appErr.Message).To(Equal("User not found"))
		})
	})

	Describe("ChangePassword", func() {
		It("should rotate the hash when the current password matches", func() {
			u := signup("rotate@mail.com")

			updated, err := service.ChangePassword(ctx, u.ID, user.ChangePasswordDTO{
				CurrentPassword: "secret123",
				NewPassword:     "newsecret1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PasswordHash).To(Equal("hashed:newsecret1"))

			_, err = service.Authenticate(ctx, user.LoginDTO{
				Email:    "rotate@mail.com",
				Password: "newsecret1",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a wrong current password and keep the old one working", func() {
			u := signup("keep@mail.com")

			_, err := service.ChangePassword(ctx, u.ID, user.ChangePasswordDTO{
				CurrentPassword: "wrong-password",
				NewPassword:     "newsecret1",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("Current password is incorrect"))
			Expect(appErr.StatusCode).To(Equal(http.StatusUnauthorized))

			_, err = service.Authenticate(ctx, user.LoginDTO{
				Email:    "keep@mail.com",
				Password: "secret123",
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ListUsers", func() {
		BeforeEach(func() {
			for _, email := range []string{"a@mail.com", "b@mail.com", "c@mail.com"} {
				signup(email)
			}
		})

		It("should page through accounts with totals", func() {
			users, total, page, totalPages, err := service.ListUsers(ctx, 1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(total).To(Equal(int64(3)))
			Expect(page).To(Equal(1))
			Expect(totalPages).To(Equal(2))
		})

		It("should clamp the page size to 100", func() {
			users, _, _, totalPages, err := service.ListUsers(ctx, 1, 5000)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(3))
			Expect(totalPages).To(Equal(1))
		})

		It("should surface repository failures as server errors", func() {
			mockRepo.SetShouldFail(true, errors.New("connection refused"))
			_, _, _, _, err := service.ListUsers(ctx, 1, 10)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})
})
