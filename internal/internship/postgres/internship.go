package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/internship"
)

// sortColumns maps API sort keys onto columns. Anything else falls back to
// creation time.
var sortColumns = map[string]string{
	"createdAt":           "created_at",
	"applicationDeadline": "application_deadline",
	"stipend":             "stipend",
	"title":               "title",
	"company":             "company",
}

// InternshipRepository implements internship.Repository with GORM. Every
// query runs under an explicit timeout so a stalled store surfaces as an
// error instead of hanging the request.
type InternshipRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewInternshipRepository(db *gorm.DB, queryTimeout time.Duration) *InternshipRepository {
	return &InternshipRepository{
		db:           db,
		queryTimeout: queryTimeout,
	}
}

func (r *InternshipRepository) Create(ctx context.Context, i *internship.Internship) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.db.WithContext(ctx).Create(i).Error
}

func (r *InternshipRepository) GetByID(ctx context.Context, id int64) (*internship.Internship, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var i internship.Internship
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("id = ?", id).
		First(&i).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internship.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *InternshipRepository) GetWithApplicants(ctx context.Context, id int64) (*internship.Internship, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var i internship.Internship
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Applicants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("applied_at ASC")
		}).
		Preload("Applicants.User").
		Where("id = ?", id).
		First(&i).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internship.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

// List applies the filter set, counts the unpaged total, then fetches one
// sorted page. Text filters are case-insensitive substring matches so the
// same query behaves identically on Postgres and SQLite.
func (r *InternshipRepository) List(ctx context.Context, q internship.ListQuery) ([]*internship.Internship, int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&internship.Internship{})

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if q.Category != "" {
		tx = tx.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(q.Category)+"%")
	}
	if q.Location != "" {
		tx = tx.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(q.Location)+"%")
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.IsPaid != nil {
		tx = tx.Where("is_paid = ?", *q.IsPaid)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*internship.Internship
	err := tx.
		Preload("Creator").
		Order(orderClause(q.SortBy, q.SortOrder)).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func orderClause(sortBy, sortOrder string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

func (r *InternshipRepository) Update(ctx context.Context, i *internship.Internship) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	i.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Omit("Creator", "Applicants").
		Save(i).Error
}

// Delete removes the listing; applications go with it via the cascading
// foreign key.
func (r *InternshipRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.db.WithContext(ctx).
		Select("Applicants").
		Delete(&internship.Internship{ID: id}).Error
}

func (r *InternshipRepository) ListByCreator(ctx context.Context, userID int64) ([]*internship.Internship, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var items []*internship.Internship
	err := r.db.WithContext(ctx).
		Preload("Applicants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("applied_at ASC")
		}).
		Preload("Applicants.User").
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListByApplicant returns every listing holding an application by userID,
// with all applications of each preloaded so the caller can pick out its own.
func (r *InternshipRepository) ListByApplicant(ctx context.Context, userID int64) ([]*internship.Internship, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var items []*internship.Internship
	err := r.db.WithContext(ctx).
		Preload("Applicants").
		Joins("JOIN applications ON applications.internship_id = internships.id").
		Where("applications.user_id = ?", userID).
		Order("internships.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *InternshipRepository) AddApplication(ctx context.Context, app *internship.Application) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.db.WithContext(ctx).Create(app).Error
}

func (r *InternshipRepository) UpdateApplicationStatus(ctx context.Context, internshipID, userID int64, status string) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.db.WithContext(ctx).
		Model(&internship.Application{}).
		Where("internship_id = ? AND user_id = ?", internshipID, userID).
		Update("status", status).Error
}
