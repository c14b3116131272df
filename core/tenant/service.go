package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("tenant not found")
	ErrSubdomainExists = errors.New("a tenant with this subdomain already exists")
	ErrSlugExists      = errors.New("a tenant with this slug already exists")
)

type (
	Repository interface {
		CheckSubdomainUniqueness(ctx context.Context, subdomain, slug string) error
		CreateTenant(ctx context.Context, t Tenant) (Tenant, error)
		GetTenantByID(ctx context.Context, id int) (Tenant, error)
		GetTenantBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
		QueryAllTenants(ctx context.Context) ([]Tenant, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, subdomain, slug string) error
		Create(ctx context.Context, nt NewTenant, createdBy int) (Tenant, error)
		GetByID(ctx context.Context, id int) (Tenant, error)
		GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
		QueryAll(ctx context.Context) ([]Tenant, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, subdomain, slug string) error {
	if err := svc.repo.CheckSubdomainUniqueness(ctx, subdomain, slug); err != nil {
		var field string
		switch err {
		case ErrSubdomainExists:
			field = "subdomain"
		case ErrSlugExists:
			field = "name"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create provisions a new Tenant. It is a super-admin-only operation; callers
// are expected to have gone through the authorization gate already.
func (svc *service) Create(ctx context.Context, nt NewTenant, createdBy int) (Tenant, error) {
	t := Tenant{
		Name:      nt.Name,
		Subdomain: nt.Subdomain,
		Slug:      Slugify(nt.Name),
		CreatedBy: null.IntFrom(createdBy),
		CreatedAt: time.Now().UTC(),
	}
	t, err := svc.repo.CreateTenant(ctx, t)
	if err != nil {
		// a concurrent create may have claimed the subdomain after the
		// uniqueness pre-check; surface it as a conflict, not a 500.
		if err == ErrSubdomainExists || err == ErrSlugExists {
			return Tenant{}, core.NewConflictError(err)
		}
		return Tenant{}, err
	}
	return t, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Tenant, error) {
	return svc.repo.GetTenantByID(ctx, id)
}

func (svc *service) GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error) {
	return svc.repo.GetTenantBySubdomain(ctx, core.CleanString(subdomain, true /* lower */))
}

func (svc *service) QueryAll(ctx context.Context) ([]Tenant, error) {
	return svc.repo.QueryAllTenants(ctx)
}
