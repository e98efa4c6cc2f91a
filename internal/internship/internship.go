package internship

import (
	"strings"
	"time"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/user"
)

// Internship type and lifecycle values.
const (
	TypeRemote = "remote"
	TypeOnsite = "onsite"
	TypeHybrid = "hybrid"

	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusFilled = "filled"
)

// Application status values. Transitions are deliberately unrestricted;
// the creator may move an application back to pending after rejecting it.
const (
	AppStatusPending  = "pending"
	AppStatusReviewed = "reviewed"
	AppStatusAccepted = "accepted"
	AppStatusRejected = "rejected"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
)

// Internship is a posted listing. It exclusively owns its applications:
// they are only reachable through the parent and die with it.
type Internship struct {
	ID                  int64      `json:"id" gorm:"primaryKey"`
	Title               string     `json:"title" gorm:"not null"`
	Company             string     `json:"company" gorm:"not null"`
	Description         string     `json:"description" gorm:"not null"`
	Requirements        []string   `json:"requirements" gorm:"serializer:json"`
	Location            string     `json:"location" gorm:"not null"`
	Type                string     `json:"type" gorm:"default:onsite"`
	Category            string     `json:"category" gorm:"not null"`
	Duration            string     `json:"duration" gorm:"not null"`
	Stipend             float64    `json:"stipend" gorm:"default:0"`
	IsPaid              bool       `json:"isPaid" gorm:"column:is_paid;default:false"`
	ApplicationDeadline time.Time  `json:"applicationDeadline" gorm:"not null"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	Positions           int        `json:"positions" gorm:"default:1"`
	Skills              []string   `json:"skills" gorm:"serializer:json"`
	Status              string     `json:"status" gorm:"default:open"`
	CreatedByID         int64      `json:"-" gorm:"column:created_by;not null"`
	Creator             *user.User `json:"-" gorm:"foreignKey:CreatedByID"`
	Applicants          []Application `json:"-" gorm:"foreignKey:InternshipID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (Internship) TableName() string {
	return "internships"
}

// Validate checks the entity-level invariants shared by create and update.
func (i *Internship) Validate() error {
	switch {
	case strings.TrimSpace(i.Title) == "":
		return internal.NewValidationError("Title is required", internal.ErrCodeValidationFailed)
	case len(i.Title) > maxTitleLen:
		return internal.NewValidationError("Title cannot exceed 200 characters", internal.ErrCodeValidationFailed)
	case strings.TrimSpace(i.Company) == "":
		return internal.NewValidationError("Company name is required", internal.ErrCodeValidationFailed)
	case strings.TrimSpace(i.Description) == "":
		return internal.NewValidationError("Description is required", internal.ErrCodeValidationFailed)
	case len(i.Description) > maxDescriptionLen:
		return internal.NewValidationError("Description cannot exceed 5000 characters", internal.ErrCodeValidationFailed)
	case strings.TrimSpace(i.Location) == "":
		return internal.NewValidationError("Location is required", internal.ErrCodeValidationFailed)
	case strings.TrimSpace(i.Category) == "":
		return internal.NewValidationError("Category is required", internal.ErrCodeValidationFailed)
	case strings.TrimSpace(i.Duration) == "":
		return internal.NewValidationError("Duration is required", internal.ErrCodeValidationFailed)
	case i.ApplicationDeadline.IsZero():
		return internal.NewValidationError("Application deadline is required", internal.ErrCodeValidationFailed)
	case i.Positions < 1:
		return internal.NewValidationError("At least one position is required", internal.ErrCodeValidationFailed)
	case !ValidType(i.Type):
		return internal.NewValidationError("Type must be one of remote, onsite, hybrid", internal.ErrCodeValidationFailed)
	case !ValidStatus(i.Status):
		return internal.NewValidationError("Status must be one of open, closed, filled", internal.ErrCodeValidationFailed)
	}
	return nil
}

func ValidType(t string) bool {
	return t == TypeRemote || t == TypeOnsite || t == TypeHybrid
}

func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusClosed || s == StatusFilled
}

func ValidApplicationStatus(s string) bool {
	return s == AppStatusPending || s == AppStatusReviewed ||
		s == AppStatusAccepted || s == AppStatusRejected
}

// Application is embedded in its internship: no route addresses one outside
// its parent, and the (internship, user) pair is unique.
type Application struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	InternshipID int64      `json:"-" gorm:"column:internship_id;not null;uniqueIndex:idx_applications_internship_user"`
	UserID       int64      `json:"userId" gorm:"column:user_id;not null;uniqueIndex:idx_applications_internship_user"`
	User         *user.User `json:"-" gorm:"foreignKey:UserID"`
	CoverLetter  string     `json:"coverLetter"`
	Status       string     `json:"status" gorm:"default:pending"`
	AppliedAt    time.Time  `json:"appliedAt"`
}

func (Application) TableName() string {
	return "applications"
}

// CreateInternshipDTO is the creation payload. Zero-valued optionals pick up
// the model defaults before validation.
type CreateInternshipDTO struct {
	Title               string     `json:"title"`
	Company             string     `json:"company"`
	Description         string     `json:"description"`
	Requirements        []string   `json:"requirements"`
	Location            string     `json:"location"`
	Type                string     `json:"type"`
	Category            string     `json:"category"`
	Duration            string     `json:"duration"`
	Stipend             float64    `json:"stipend"`
	IsPaid              bool       `json:"isPaid"`
	ApplicationDeadline time.Time  `json:"applicationDeadline"`
	StartDate           *time.Time `json:"startDate"`
	Positions           int        `json:"positions"`
	Skills              []string   `json:"skills"`
	Status              string     `json:"status"`
}

// ToInternship builds the entity owned by creatorID. The creator reference
// is set here once and never overwritable afterwards.
func (dto CreateInternshipDTO) ToInternship(creatorID int64) *Internship {
	i := &Internship{
		Title:               dto.Title,
		Company:             dto.Company,
		Description:         dto.Description,
		Requirements:        dto.Requirements,
		Location:            dto.Location,
		Type:                dto.Type,
		Category:            dto.Category,
		Duration:            dto.Duration,
		Stipend:             dto.Stipend,
		IsPaid:              dto.IsPaid,
		ApplicationDeadline: dto.ApplicationDeadline,
		StartDate:           dto.StartDate,
		Positions:           dto.Positions,
		Skills:              dto.Skills,
		Status:              dto.Status,
		CreatedByID:         creatorID,
	}
	if i.Type == "" {
		i.Type = TypeOnsite
	}
	if i.Status == "" {
		i.Status = StatusOpen
	}
	if i.Positions == 0 {
		i.Positions = 1
	}
	if i.Requirements == nil {
		i.Requirements = []string{}
	}
	if i.Skills == nil {
		i.Skills = []string{}
	}
	return i
}

// UpdateInternshipDTO carries partial updates. The creator reference and the
// applicant list are never part of this payload's effect, even if supplied.
type UpdateInternshipDTO struct {
	Title               *string    `json:"title"`
	Company             *string    `json:"company"`
	Description         *string    `json:"description"`
	Requirements        []string   `json:"requirements"`
	Location            *string    `json:"location"`
	Type                *string    `json:"type"`
	Category            *string    `json:"category"`
	Duration            *string    `json:"duration"`
	Stipend             *float64   `json:"stipend"`
	IsPaid              *bool      `json:"isPaid"`
	ApplicationDeadline *time.Time `json:"applicationDeadline"`
	StartDate           *time.Time `json:"startDate"`
	Positions           *int       `json:"positions"`
	Skills              []string   `json:"skills"`
	Status              *string    `json:"status"`
}

func (dto UpdateInternshipDTO) ApplyTo(i *Internship) {
	if dto.Title != nil {
		i.Title = *dto.Title
	}
	if dto.Company != nil {
		i.Company = *dto.Company
	}
	if dto.Description != nil {
		i.Description = *dto.Description
	}
	if dto.Requirements != nil {
		i.Requirements = dto.Requirements
	}
	if dto.Location != nil {
		i.Location = *dto.Location
	}
	if dto.Type != nil {
		i.Type = *dto.Type
	}
	if dto.Category != nil {
		i.Category = *dto.Category
	}
	if dto.Duration != nil {
		i.Duration = *dto.Duration
	}
	if dto.Stipend != nil {
		i.Stipend = *dto.Stipend
	}
	if dto.IsPaid != nil {
		i.IsPaid = *dto.IsPaid
	}
	if dto.ApplicationDeadline != nil {
		i.ApplicationDeadline = *dto.ApplicationDeadline
	}
	if dto.StartDate != nil {
		i.StartDate = dto.StartDate
	}
	if dto.Positions != nil {
		i.Positions = *dto.Positions
	}
	if dto.Skills != nil {
		i.Skills = dto.Skills
	}
	if dto.Status != nil {
		i.Status = *dto.Status
	}
}

type ApplyDTO struct {
	CoverLetter string `json:"coverLetter"`
}

type UpdateApplicationStatusDTO struct {
	ApplicantID int64  `json:"applicantId"`
	Status      string `json:"status"`
}

// ----------------- VIEW PROJECTIONS -----------------

// CreatorSummary is the public slice of the owning user attached to
// listing reads.
type CreatorSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

// View is the wire shape of a listing, with the creator resolved.
type View struct {
	Internship
	CreatedBy  *CreatorSummary `json:"createdBy,omitempty"`
	Applicants []ApplicantView `json:"applicants,omitempty"`
}

// ApplicantView resolves an application's user to name/email for the
// creator-facing my-internships listing.
type ApplicantView struct {
	User        Applicant `json:"user"`
	CoverLetter string    `json:"coverLetter"`
	Status      string    `json:"status"`
	AppliedAt   time.Time `json:"appliedAt"`
}

type Applicant struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (i *Internship) ToView(withApplicants bool) View {
	v := View{Internship: *i}
	v.Internship.Applicants = nil

	if i.Creator != nil {
		v.CreatedBy = &CreatorSummary{
			ID:      i.Creator.ID,
			Name:    i.Creator.Name,
			Email:   i.Creator.Email,
			Company: i.Creator.Company,
		}
	}

	if withApplicants {
		v.Applicants = make([]ApplicantView, 0, len(i.Applicants))
		for _, app := range i.Applicants {
			av := ApplicantView{
				CoverLetter: app.CoverLetter,
				Status:      app.Status,
				AppliedAt:   app.AppliedAt,
			}
			if app.User != nil {
				av.User = Applicant{ID: app.User.ID, Name: app.User.Name, Email: app.User.Email}
			} else {
				av.User = Applicant{ID: app.UserID}
			}
			v.Applicants = append(v.Applicants, av)
		}
	}

	return v
}

// InternshipSummary is the parent projection paired with a student's own
// application in the my-applications listing.
type InternshipSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Status   string `json:"status"`
}

type MyApplication struct {
	Internship        InternshipSummary `json:"internship"`
	ApplicationStatus string            `json:"applicationStatus"`
	AppliedAt         time.Time         `json:"appliedAt"`
}

// ApplicationEntry is one row of the creator-facing applications listing,
// with the applicant resolved to name/email/role.
type ApplicationEntry struct {
	Applicant   Applicant `json:"applicant"`
	CoverLetter string    `json:"coverLetter"`
	Status      string    `json:"status"`
	AppliedAt   time.Time `json:"appliedAt"`
}
