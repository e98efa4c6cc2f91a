package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/techtern/backend/internal/user"
	userpg "github.com/techtern/backend/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User Repository", func() {
	var (
		db   *gorm.DB
		repo *userpg.UserRepository
		ctx  context.Context
	)

	newUser := func(email string) *user.User {
		u := &user.User{
			Name:         "Some User",
			Email:        email,
			PasswordHash: "hash",
			Role:         "student",
		}
		Expect(repo.Create(ctx, u)).To(Succeed())
		return u
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.AutoMigrate(&user.User{})).To(Succeed())

		repo = userpg.NewUserRepository(db, 0)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("should assign an ID and persist the account", func() {
			u := newUser("one@mail.com")
			Expect(u.ID).NotTo(BeZero())
		})

		It("should reject a duplicate email at the index", func() {
			newUser("dup@mail.com")
			err := repo.Create(ctx, &user.User{
				Name:         "Second",
				Email:        "dup@mail.com",
				PasswordHash: "hash",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetByID and GetByEmail", func() {
		It("should fetch stored accounts", func() {
			created := newUser("fetch@mail.com")

			byID, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Email).To(Equal("fetch@mail.com"))

			byEmail, err := repo.GetByEmail(ctx, "fetch@mail.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(created.ID))
		})

		It("should report missing accounts with the package sentinel", func() {
			_, err := repo.GetByID(ctx, 999)
			Expect(err).To(MatchError(user.ErrNotFound))

			_, err = repo.GetByEmail(ctx, "nobody@mail.com")
			Expect(err).To(MatchError(user.ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("should persist profile changes", func() {
			u := newUser("update@mail.com")
			u.Bio = "Updated bio"
			u.Company = "Acme"

			Expect(repo.Update(ctx, u)).To(Succeed())

			got, err := repo.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Bio).To(Equal("Updated bio"))
			Expect(got.Company).To(Equal("Acme"))
		})
	})

	Describe("List", func() {
		It("should page accounts and report the unpaged total", func() {
			for _, email := range []string{"a@mail.com", "b@mail.com", "c@mail.com"} {
				newUser(email)
			}

			users, total, err := repo.List(ctx, 2, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(users).To(HaveLen(2))

			rest, _, err := repo.List(ctx, 2, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(rest).To(HaveLen(1))
		})
	})
})
