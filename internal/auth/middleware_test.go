package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/techtern/backend/internal/auth"
)

// mockLoader resolves token subjects from a fixed identity map.
type mockLoader struct {
	identities map[int64]*auth.Identity
}

func (m *mockLoader) LoadIdentity(_ context.Context, userID int64) (*auth.Identity, error) {
	identity, ok := m.identities[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return identity, nil
}

var _ = Describe("Auth Middleware", func() {
	var (
		service    *auth.Service
		middleware *auth.Middleware
		loader     *mockLoader
		next       http.Handler
		nextCalled bool
		gotID      *auth.Identity
	)

	issueToken := func(userID int64, role string) string {
		token, _, err := service.IssueToken(userID, "user@mail.com", role)
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	decodeMessage := func(rec *httptest.ResponseRecorder) string {
		var body struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Success).To(BeFalse())
		return body.Message
	}

	BeforeEach(func() {
		service = auth.NewService(auth.NewJWTTokenGenerator("test-secret", time.Hour), 10)
		loader = &mockLoader{identities: map[int64]*auth.Identity{
			1: {ID: 1, Name: "Student", Email: "user@mail.com", Role: auth.RoleStudent},
		}}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		middleware = auth.NewMiddleware(service, loader, lg)

		nextCalled = false
		gotID = nil
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			gotID, _ = auth.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	Describe("Authenticate", func() {
		It("should accept a bearer token and attach the live identity", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(1, auth.RoleStudent))
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(nextCalled).To(BeTrue())
			Expect(gotID).NotTo(BeNil())
			Expect(gotID.ID).To(Equal(int64(1)))
		})

		It("should accept the session cookie when no header is present", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: issueToken(1, auth.RoleStudent)})
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(nextCalled).To(BeTrue())
		})

		It("should reject a request with no credential at all", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(nextCalled).To(BeFalse())
			Expect(decodeMessage(rec)).To(Equal("Not authorized, no token provided"))
		})

		It("should reject an invalid token", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer garbage")
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeMessage(rec)).To(Equal("Not authorized, token invalid"))
		})

		It("should reject a valid token for a deleted account", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(42, auth.RoleStudent))
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeMessage(rec)).To(Equal("Not authorized, user not found"))
		})
	})

	Describe("RequireRoles", func() {
		protected := func(roles ...string) http.Handler {
			return middleware.Authenticate(middleware.RequireRoles(roles...)(next))
		}

		It("should pass an identity holding one of the roles", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(1, auth.RoleStudent))
			rec := httptest.NewRecorder()

			protected(auth.RoleStudent, auth.RoleAdmin).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(nextCalled).To(BeTrue())
		})

		It("should answer 403 for an identity outside the role set", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(1, auth.RoleStudent))
			rec := httptest.NewRecorder()

			protected(auth.RoleAdmin).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(nextCalled).To(BeFalse())
			Expect(decodeMessage(rec)).To(ContainSubstring("not authorized to access this route"))
		})
	})
})
