package user_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/user"
	userpg "github.com/techtern/backend/internal/user/postgres"
)

var _ = Describe("User Handler Integration", func() {
	var (
		db          *gorm.DB
		service     *user.Service
		authService *auth.Service
		handler     *user.Handler
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&user.User{})).To(Succeed())

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		// Minimum bcrypt cost keeps hashing fast in tests.
		authService = auth.NewService(auth.NewJWTTokenGenerator("test-secret", time.Hour), 4)
		service = user.NewService(userpg.NewUserRepository(db, 0), authService, lg)
		handler = user.NewHandler(service, authService, false)
	})

	signupBody := `{"name":"Student","email":"student@mail.com","password":"secret123"}`

	doSignup := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(signupBody))
		w := httptest.NewRecorder()
		handler.Signup(w, req)
		return w
	}

	Describe("Signup", func() {
		It("should register, set the session cookie and echo the token", func() {
			w := doSignup()

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp struct {
				Success bool         `json:"success"`
				Message string       `json:"message"`
				User    user.Summary `json:"user"`
				Token   string       `json:"token"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Message).To(Equal("User registered successfully"))
			Expect(resp.User.Email).To(Equal("student@mail.com"))
			Expect(resp.User.Role).To(Equal(auth.RoleStudent))
			Expect(resp.Token).NotTo(BeEmpty())

			claims, err := authService.ValidateToken(resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(resp.User.ID))

			cookies := w.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal(auth.SessionCookieName))
			Expect(cookies[0].Value).To(Equal(resp.Token))
			Expect(cookies[0].HttpOnly).To(BeTrue())
			Expect(cookies[0].SameSite).To(Equal(http.SameSiteStrictMode))
		})

		It("should reject a duplicate signup with the conflict envelope", func() {
			doSignup()
			w := doSignup()

			Expect(w.Code).To(Equal(http.StatusBadRequest))

			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Success).To(BeFalse())
			Expect(resp.Message).To(Equal("User already exists with this email"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			doSignup()
		})

		It("should authenticate and set a fresh cookie", func() {
			body := `{"email":"student@mail.com","password":"secret123"}`
			req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
				Token   string `json:"token"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Message).To(Equal("Login successful"))
			Expect(resp.Token).NotTo(BeEmpty())
		})

		It("should answer 401 with the uniform message for a wrong password", func() {
			body := `{"email":"student@mail.com","password":"wrong-password"}`
			req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))

			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Success).To(BeFalse())
			Expect(resp.Message).To(Equal("Invalid credentials"))
		})
	})

	Describe("Logout", func() {
		It("should expire the session cookie", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/users/logout", nil)
			w := httptest.NewRecorder()
			handler.Logout(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			cookies := w.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal(auth.SessionCookieName))
			Expect(cookies[0].Value).To(BeEmpty())
			Expect(cookies[0].Expires.Before(time.Now())).To(BeTrue())
		})
	})

	Describe("GetProfile", func() {
		It("should return the full profile for the authenticated identity", func() {
			w := doSignup()
			var created struct {
				User user.Summary `json:"user"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			identity := &auth.Identity{ID: created.User.ID, Email: created.User.Email, Role: created.User.Role}
			req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
			rec := httptest.NewRecorder()
			handler.GetProfile(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp struct {
				Success bool         `json:"success"`
				User    user.Profile `json:"user"`
			}
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.User.Email).To(Equal("student@mail.com"))
		})

		It("should answer 401 without an identity in context", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			rec := httptest.NewRecorder()
			handler.GetProfile(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
