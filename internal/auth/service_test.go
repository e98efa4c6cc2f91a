package auth_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/techtern/backend/internal/auth"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

var _ = Describe("Auth Service", func() {
	var service *auth.Service

	BeforeEach(func() {
		service = auth.NewService(auth.NewJWTTokenGenerator("test-secret", time.Hour), 10)
	})

	Describe("IssueToken and ValidateToken", func() {
		It("should round-trip the identity claims", func() {
			token, expiresAt, err := service.IssueToken(42, "student@mail.com", auth.RoleStudent)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(expiresAt).To(BeTemporally("~", time.Now().Add(time.Hour), 5*time.Second))

			claims, err := service.ValidateToken(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(int64(42)))
			Expect(claims.Email).To(Equal("student@mail.com"))
			Expect(claims.Role).To(Equal(auth.RoleStudent))
		})

		It("should reject a token signed with a different secret", func() {
			other := auth.NewJWTTokenGenerator("other-secret", time.Hour)
			token, _, err := other.Generate(42, "student@mail.com", auth.RoleStudent)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateToken(token)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("should reject an expired token", func() {
			expired := auth.NewService(auth.NewJWTTokenGenerator("test-secret", -time.Minute), 10)
			token, _, err := expired.IssueToken(42, "student@mail.com", auth.RoleStudent)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateToken(token)
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("should reject garbage input", func() {
			_, err := service.ValidateToken("not-a-token")
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("HashPassword and CheckPassword", func() {
		It("should verify the original password and nothing else", func() {
			hash, err := service.HashPassword("secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(hash).NotTo(Equal("secret123"))

			Expect(service.CheckPassword(hash, "secret123")).To(BeTrue())
			Expect(service.CheckPassword(hash, "secret124")).To(BeFalse())
		})

		It("should produce distinct hashes for the same password", func() {
			first, err := service.HashPassword("secret123")
			Expect(err).NotTo(HaveOccurred())
			second, err := service.HashPassword("secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(first).NotTo(Equal(second))
		})
	})

	Describe("CanManage", func() {
		It("should allow the resource owner", func() {
			identity := &auth.Identity{ID: 7, Role: auth.RoleEmployer}
			Expect(auth.CanManage(identity, 7)).To(BeTrue())
		})

		It("should allow an admin who is not the owner", func() {
			identity := &auth.Identity{ID: 1, Role: auth.RoleAdmin}
			Expect(auth.CanManage(identity, 7)).To(BeTrue())
		})

		It("should deny everyone else", func() {
			identity := &auth.Identity{ID: 2, Role: auth.RoleEmployer}
			Expect(auth.CanManage(identity, 7)).To(BeFalse())
			Expect(auth.CanManage(nil, 7)).To(BeFalse())
		})
	})
})
