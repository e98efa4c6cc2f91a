package internship

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/transport"
	"github.com/techtern/backend/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateInternshipDTO, identity *auth.Identity) (*Internship, error)
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	GetByID(ctx context.Context, id int64) (*Internship, error)
	Update(ctx context.Context, id int64, dto UpdateInternshipDTO, identity *auth.Identity) (*Internship, error)
	Delete(ctx context.Context, id int64, identity *auth.Identity) error
	Apply(ctx context.Context, id int64, identity *auth.Identity, coverLetter string) error
	ListMine(ctx context.Context, identity *auth.Identity) ([]*Internship, error)
	ListMyApplications(ctx context.Context, identity *auth.Identity) ([]MyApplication, error)
	UpdateApplicationStatus(ctx context.Context, internshipID, applicantID int64, status string, identity *auth.Identity) error
	ListApplications(ctx context.Context, internshipID int64, identity *auth.Identity) (*Internship, []ApplicationEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

type internshipResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Internship View   `json:"internship"`
}

type listResponse struct {
	Success     bool   `json:"success"`
	Count       int    `json:"count"`
	Total       int64  `json:"total"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Internships []View `json:"internships"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var dto CreateInternshipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	i, err := h.Service.Create(r.Context(), dto, identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, internshipResponse{
		Success:    true,
		Message:    "Internship created successfully",
		Internship: i.ToView(false),
	})
}

// List is the public search surface. All filters are optional and combine
// with AND semantics.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := ListQuery{
		Search:    query.Get("search"),
		Category:  query.Get("category"),
		Location:  query.Get("location"),
		Type:      query.Get("type"),
		Status:    query.Get("status"),
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
	}
	if raw := query.Get("isPaid"); raw != "" {
		if paid, err := strconv.ParseBool(raw); err == nil {
			q.IsPaid = &paid
		}
	}
	q.Page, _ = strconv.Atoi(query.Get("page"))
	q.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]View, 0, len(result.Items))
	for _, i := range result.Items {
		views = append(views, i.ToView(false))
	}

	h.WriteJSON(w, http.StatusOK, listResponse{
		Success:     true,
		Count:       len(views),
		Total:       result.Total,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
		Internships: views,
	})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	i, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, internshipResponse{
		Success:    true,
		Internship: i.ToView(false),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	var dto UpdateInternshipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	i, err := h.Service.Update(r.Context(), id, dto, identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, internshipResponse{
		Success:    true,
		Message:    "Internship updated successfully",
		Internship: i.ToView(false),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id, identity); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Internship deleted successfully",
	})
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	// The cover letter is optional and the body may be absent entirely.
	var dto ApplyDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	if err := h.Service.Apply(r.Context(), id, identity, dto.CoverLetter); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Application submitted successfully",
	})
}

type myInternshipsResponse struct {
	Success     bool   `json:"success"`
	Count       int    `json:"count"`
	Internships []View `json:"internships"`
}

// ListMine returns the caller's own postings with applicants resolved.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	items, err := h.Service.ListMine(r.Context(), identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]View, 0, len(items))
	for _, i := range items {
		views = append(views, i.ToView(true))
	}

	h.WriteJSON(w, http.StatusOK, myInternshipsResponse{
		Success:     true,
		Count:       len(views),
		Internships: views,
	})
}

type myApplicationsResponse struct {
	Success      bool            `json:"success"`
	Count        int             `json:"count"`
	Applications []MyApplication `json:"applications"`
}

func (h *Handler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	applications, err := h.Service.ListMyApplications(r.Context(), identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, myApplicationsResponse{
		Success:      true,
		Count:        len(applications),
		Applications: applications,
	})
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	var dto UpdateApplicationStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.Service.UpdateApplicationStatus(r.Context(), id, dto.ApplicantID, dto.Status, identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Application status updated successfully",
	})
}

type applicationsResponse struct {
	Success         bool               `json:"success"`
	InternshipID    int64              `json:"internshipId"`
	InternshipTitle string             `json:"internshipTitle"`
	Count           int                `json:"count"`
	Applications    []ApplicationEntry `json:"applications"`
}

// ListApplications is the creator-facing applications view for one listing.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, ok := h.internshipID(w, r)
	if !ok {
		return
	}

	i, entries, err := h.Service.ListApplications(r.Context(), id, identity)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, applicationsResponse{
		Success:         true,
		InternshipID:    i.ID,
		InternshipTitle: i.Title,
		Count:           len(entries),
		Applications:    entries,
	})
}

func (h *Handler) internshipID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.WriteError(w, http.StatusBadRequest, "Invalid internship ID")
		return 0, false
	}
	return id, true
}
