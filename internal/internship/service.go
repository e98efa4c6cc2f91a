package internship

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/auth"
)

var ErrNotFound = errors.New("internship not found")

// ListQuery is the search/filter/sort/pagination surface of the public
// listing. Text filters match case-insensitive substrings; type, status and
// isPaid are exact.
type ListQuery struct {
	Search    string
	Category  string
	Location  string
	Type      string
	Status    string
	IsPaid    *bool
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Normalize fills pagination defaults. The public limit has no upper clamp;
// the original surface behaves that way and callers depend on large pages.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Repository defines the data access methods for internships and their
// embedded applications.
type Repository interface {
	Create(ctx context.Context, i *Internship) error
	GetByID(ctx context.Context, id int64) (*Internship, error)
	GetWithApplicants(ctx context.Context, id int64) (*Internship, error)
	List(ctx context.Context, q ListQuery) ([]*Internship, int64, error)
	Update(ctx context.Context, i *Internship) error
	Delete(ctx context.Context, id int64) error
	ListByCreator(ctx context.Context, userID int64) ([]*Internship, error)
	ListByApplicant(ctx context.Context, userID int64) ([]*Internship, error)
	AddApplication(ctx context.Context, app *Application) error
	UpdateApplicationStatus(ctx context.Context, internshipID, userID int64, status string) error
}

// Service handles listing and application-lifecycle business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create persists a new listing owned by the caller.
func (s *Service) Create(ctx context.Context, dto CreateInternshipDTO, identity *auth.Identity) (*Internship, error) {
	i := dto.ToInternship(identity.ID)
	if err := i.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, i); err != nil {
		return nil, internal.NewInternalError("Server error creating internship", err)
	}

	s.logger.Info("internship created", "internship_id", i.ID, "created_by", identity.ID)

	return i, nil
}

type ListResult struct {
	Items       []*Internship
	Total       int64
	TotalPages  int
	CurrentPage int
}

// List runs the filtered, sorted, paginated public listing.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q.Normalize()

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching internships", err)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))

	return &ListResult{
		Items:       items,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: q.Page,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Internship, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.NewNotFoundError("Internship not found", internal.ErrCodeInternshipNotFound)
		}
		return nil, internal.NewInternalError("Server error fetching internship", err)
	}
	return i, nil
}

// Update modifies a listing. Only the creator or an admin may update, and
// neither the creator reference nor the applicant list is touchable here.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateInternshipDTO, identity *auth.Identity) (*Internship, error) {
	i, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanManage(identity, i.CreatedByID) {
		s.logger.Warn("update denied", "internship_id", id, "user_id", identity.ID)
		return nil, internal.NewForbiddenError("Not authorized to update this internship", internal.ErrCodeNotResourceOwner)
	}

	dto.ApplyTo(i)
	if err := i.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, i); err != nil {
		return nil, internal.NewInternalError("Server error updating internship", err)
	}

	s.logger.Info("internship updated", "internship_id", i.ID, "user_id", identity.ID)

	return i, nil
}

// Delete removes a listing and all its embedded applications.
func (s *Service) Delete(ctx context.Context, id int64, identity *auth.Identity) error {
	i, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CanManage(identity, i.CreatedByID) {
		s.logger.Warn("delete denied", "internship_id", id, "user_id", identity.ID)
		return internal.NewForbiddenError("Not authorized to delete this internship", internal.ErrCodeNotResourceOwner)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("Server error deleting internship", err)
	}

	s.logger.Info("internship deleted", "internship_id", id, "user_id", identity.ID)

	return nil
}

// Apply appends a pending application for the caller. Only open listings
// accept applications, and one user applies at most once per listing.
func (s *Service) Apply(ctx context.Context, id int64, identity *auth.Identity, coverLetter string) error {
	i, err := s.repo.GetWithApplicants(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.NewNotFoundError("Internship not found", internal.ErrCodeInternshipNotFound)
		}
		return internal.NewInternalError("Server error applying to internship", err)
	}

	if i.Status != StatusOpen {
		return internal.NewConflictError("This internship is no longer accepting applications", internal.ErrCodeNotAcceptingApps)
	}

	for _, app := range i.Applicants {
		if app.UserID == identity.ID {
			return internal.NewConflictError("You have already applied to this internship", internal.ErrCodeAlreadyApplied)
		}
	}

	app := &Application{
		InternshipID: id,
		UserID:       identity.ID,
		CoverLetter:  coverLetter,
		Status:       AppStatusPending,
		AppliedAt:    time.Now(),
	}

	if err := s.repo.AddApplication(ctx, app); err != nil {
		// The unique index backs up the in-memory check against races.
		return internal.NewInternalError("Server error applying to internship", err)
	}

	s.logger.Info("application submitted", "internship_id", id, "user_id", identity.ID)

	return nil
}

// ListMine returns the caller's own postings, newest first, with applicant
// identities resolved.
func (s *Service) ListMine(ctx context.Context, identity *auth.Identity) ([]*Internship, error) {
	items, err := s.repo.ListByCreator(ctx, identity.ID)
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching your internships", err)
	}
	return items, nil
}

// ListMyApplications projects every listing the caller applied to onto a
// summary paired with their own application state, newest listing first.
func (s *Service) ListMyApplications(ctx context.Context, identity *auth.Identity) ([]MyApplication, error) {
	items, err := s.repo.ListByApplicant(ctx, identity.ID)
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching your applications", err)
	}

	applications := make([]MyApplication, 0, len(items))
	for _, i := range items {
		for _, app := range i.Applicants {
			if app.UserID != identity.ID {
				continue
			}
			applications = append(applications, MyApplication{
				Internship: InternshipSummary{
					ID:       i.ID,
					Title:    i.Title,
					Company:  i.Company,
					Location: i.Location,
					Type:     i.Type,
					Status:   i.Status,
				},
				ApplicationStatus: app.Status,
				AppliedAt:         app.AppliedAt,
			})
			break
		}
	}

	return applications, nil
}

// UpdateApplicationStatus mutates one embedded application's status. Any
// transition between valid statuses is permitted.
func (s *Service) UpdateApplicationStatus(ctx context.Context, internshipID, applicantID int64, status string, identity *auth.Identity) error {
	i, err := s.repo.GetWithApplicants(ctx, internshipID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.NewNotFoundError("Internship not found", internal.ErrCodeInternshipNotFound)
		}
		return internal.NewInternalError("Server error updating application status", err)
	}

	if !auth.CanManage(identity, i.CreatedByID) {
		s.logger.Warn("application status update denied", "internship_id", internshipID, "user_id", identity.ID)
		return internal.NewForbiddenError("Not authorized to update application status", internal.ErrCodeNotResourceOwner)
	}

	found := false
	for _, app := range i.Applicants {
		if app.UserID == applicantID {
			found = true
			break
		}
	}
	if !found {
		return internal.NewNotFoundError("Applicant not found", internal.ErrCodeApplicantNotFound)
	}

	if !ValidApplicationStatus(status) {
		return internal.NewValidationError("Invalid status", internal.ErrCodeInvalidAppStatus)
	}

	if err := s.repo.UpdateApplicationStatus(ctx, internshipID, applicantID, status); err != nil {
		return internal.NewInternalError("Server error updating application status", err)
	}

	s.logger.Info("application status updated",
		"internship_id", internshipID,
		"applicant_id", applicantID,
		"status", status)

	return nil
}

// ListApplications returns every application on a listing with the
// applicant resolved to name/email/role. Creator or admin only.
func (s *Service) ListApplications(ctx context.Context, internshipID int64, identity *auth.Identity) (*Internship, []ApplicationEntry, error) {
	i, err := s.repo.GetWithApplicants(ctx, internshipID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, internal.NewNotFoundError("Internship not found", internal.ErrCodeInternshipNotFound)
		}
		return nil, nil, internal.NewInternalError("Server error fetching applications", err)
	}

	if !auth.CanManage(identity, i.CreatedByID) {
		s.logger.Warn("applications listing denied", "internship_id", internshipID, "user_id", identity.ID)
		return nil, nil, internal.NewForbiddenError("Not authorized to view applications for this internship", internal.ErrCodeNotResourceOwner)
	}

	entries := make([]ApplicationEntry, 0, len(i.Applicants))
	for _, app := range i.Applicants {
		entry := ApplicationEntry{
			CoverLetter: app.CoverLetter,
			Status:      app.Status,
			AppliedAt:   app.AppliedAt,
		}
		if app.User != nil {
			entry.Applicant = Applicant{
				ID:    app.User.ID,
				Name:  app.User.Name,
				Email: app.User.Email,
				Role:  app.User.Role,
			}
		} else {
			entry.Applicant = Applicant{ID: app.UserID}
		}
		entries = append(entries, entry)
	}

	return i, entries, nil
}
