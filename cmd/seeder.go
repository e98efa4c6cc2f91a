package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/internship"
	"github.com/techtern/backend/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts and internships for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			// Applications cascade with their internships.
			if err := gormDB.Exec("DELETE FROM internships").Error; err != nil {
				log.Fatalf("failed to clear internships: %v", err)
			}
			if err := gormDB.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), cfg.Security.BCryptCost)

		accounts := []user.User{
			{Name: "Admin", Email: "admin@techtern.dev", PasswordHash: string(hash), Role: auth.RoleAdmin},
			{Name: "Acme Recruiting", Email: "employer@techtern.dev", PasswordHash: string(hash), Role: auth.RoleEmployer, Company: "Acme Corp", Location: "Jakarta"},
			{Name: "Student One", Email: "student@techtern.dev", PasswordHash: string(hash), Role: auth.RoleStudent, Bio: "CS undergrad looking for backend internships"},
		}

		users := make(map[string]int64, len(accounts))
		for i := range accounts {
			u := &accounts[i]
			var existing user.User
			if err := gormDB.Where("email = ?", u.Email).First(&existing).Error; err == nil {
				fmt.Printf("user %s already exists\n", u.Email)
				users[u.Role] = existing.ID
				continue
			}
			if err := gormDB.Create(u).Error; err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
			users[u.Role] = u.ID
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}

		deadline := time.Now().AddDate(0, 1, 0)
		listings := []internship.Internship{
			{
				Title:               "Backend Intern",
				Company:             "Acme Corp",
				Description:         "Work on Go services behind the internship marketplace.",
				Requirements:        []string{"Go or similar", "SQL basics"},
				Location:            "Jakarta",
				Type:                internship.TypeHybrid,
				Category:            "Software Engineering",
				Duration:            "3 months",
				Stipend:             500,
				IsPaid:              true,
				ApplicationDeadline: deadline,
				Positions:           2,
				Skills:              []string{"Go", "PostgreSQL"},
				Status:              internship.StatusOpen,
				CreatedByID:         users[auth.RoleEmployer],
			},
			{
				Title:               "Frontend Intern",
				Company:             "Acme Corp",
				Description:         "Build the marketplace UI alongside the design team.",
				Requirements:        []string{"JavaScript", "React"},
				Location:            "Remote",
				Type:                internship.TypeRemote,
				Category:            "Software Engineering",
				Duration:            "6 months",
				ApplicationDeadline: deadline,
				Positions:           1,
				Skills:              []string{"React", "TypeScript"},
				Status:              internship.StatusOpen,
				CreatedByID:         users[auth.RoleEmployer],
			},
		}

		for i := range listings {
			l := &listings[i]
			var count int64
			gormDB.Model(&internship.Internship{}).
				Where("title = ? AND created_by = ?", l.Title, l.CreatedByID).
				Count(&count)
			if count > 0 {
				fmt.Printf("internship %q already exists\n", l.Title)
				continue
			}
			if err := gormDB.Create(l).Error; err != nil {
				log.Fatalf("failed to seed internship %q: %v", l.Title, err)
			}
			fmt.Printf("Seeded internship: %s\n", l.Title)
		}

		fmt.Println("Seeding complete")
	},
}
