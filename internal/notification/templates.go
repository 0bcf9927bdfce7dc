package notification

import (
	"context"
	stderrors "errors"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/models"
	"event-notifications/internal/repository"
)

// TemplateRepository is the persistence the template service needs.
type TemplateRepository interface {
	List(ctx context.Context, tenantID string, f models.TemplateFilter) ([]models.Template, error)
	Get(ctx context.Context, tenantID, id string) (*models.Template, error)
	ActiveExists(ctx context.Context, tenantID string, nt models.NotificationType, ch models.Channel) (bool, error)
	Create(ctx context.Context, t *models.Template) error
	Update(ctx context.Context, t *models.Template) error
	Deactivate(ctx context.Context, tenantID, id string) error
}

// TemplateService manages a tenant's templates. At most one active template
// may exist per (type, channel) within a tenant; the check is advisory and
// not transactional.
type TemplateService struct {
	repo TemplateRepository
}

func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) List(ctx context.Context, tenantID string, f models.TemplateFilter) ([]models.Template, error) {
	templates, err := s.repo.List(ctx, tenantID, f)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list templates", err)
	}
	return templates, nil
}

// Create stores a new template. Templates are active unless the input says
// otherwise.
func (s *TemplateService) Create(ctx context.Context, tenantID, createdBy string, in models.TemplateInput) (*models.Template, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	if active {
		if err := s.ensureNoActive(ctx, tenantID, in.NotificationType, in.Channel); err != nil {
			return nil, err
		}
	}

	t := &models.Template{
		TenantID:           tenantID,
		Name:               in.Name,
		NotificationType:   in.NotificationType,
		Channel:            in.Channel,
		Title:              in.Title,
		Body:               in.Body,
		Active:             active,
		AvailableVariables: AvailableVariables(in.NotificationType),
	}
	if createdBy != "" {
		t.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return t, nil
}

// Update merges the set fields of patch into the stored template.
func (s *TemplateService) Update(ctx context.Context, tenantID, id string, patch models.TemplatePatch) (*models.Template, error) {
	t, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, s.mapError("get template", id, err)
	}

	if patch.Active != nil && *patch.Active && !t.Active {
		if err := s.ensureNoActive(ctx, tenantID, t.NotificationType, t.Channel); err != nil {
			return nil, err
		}
	}

	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Title != nil {
		t.Title = patch.Title
	}
	if patch.Body != nil {
		t.Body = *patch.Body
	}
	if patch.Active != nil {
		t.Active = *patch.Active
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.mapError("update template", id, err)
	}
	return t, nil
}

// Delete deactivates the template; the row is kept.
func (s *TemplateService) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.repo.Deactivate(ctx, tenantID, id); err != nil {
		return s.mapError("deactivate template", id, err)
	}
	return nil
}

func (s *TemplateService) ensureNoActive(ctx context.Context, tenantID string, nt models.NotificationType, ch models.Channel) error {
	exists, err := s.repo.ActiveExists(ctx, tenantID, nt, ch)
	if err != nil {
		return errors.NewQueryExecutionFailedError("check active template", err)
	}
	if exists {
		return errors.NewDuplicateActiveTemplateError(string(nt), string(ch))
	}
	return nil
}

func (s *TemplateService) mapError(op, id string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewTemplateNotFoundError(id)
	}
	return errors.NewQueryExecutionFailedError(op, err)
}
