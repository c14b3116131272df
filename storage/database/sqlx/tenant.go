package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/tenant"
)

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *sqlx.DB) *tenantRepository {
	return &tenantRepository{db: db}
}

type tenantRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Subdomain string    `db:"subdomain"`
	Slug      string    `db:"slug"`
	CreatedBy null.Int  `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

func (r tenantRow) tenant() tenant.Tenant {
	return tenant.Tenant{
		ID:        r.ID,
		Name:      r.Name,
		Subdomain: r.Subdomain,
		Slug:      r.Slug,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to tenant.ErrNotFound
func (repo tenantRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return tenant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo tenantRepository) trapUniquenessErr(err error, msg string) error {
	switch uniqueConstraint(err) {
	case "tenant_subdomain_key":
		return tenant.ErrSubdomainExists
	case "tenant_slug_key":
		return tenant.ErrSlugExists
	}
	return errors.Wrap(err, msg)
}

func (repo tenantRepository) CheckSubdomainUniqueness(ctx context.Context, subdomain, slug string) error {
	var rows []tenantRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, subdomain, slug, created_by, created_at FROM tenant WHERE subdomain = $1 OR slug = $2`,
		subdomain, slug)
	if err != nil {
		return errors.Wrap(err, "checking tenant uniqueness")
	}
	for _, r := range rows {
		if r.Subdomain == subdomain {
			return tenant.ErrSubdomainExists
		}
	}
	if len(rows) > 0 {
		return tenant.ErrSlugExists
	}
	return nil
}

func (repo tenantRepository) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	err := repo.db.GetContext(ctx, &t.ID,
		`INSERT INTO tenant (name, subdomain, slug, created_by, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Name, t.Subdomain, t.Slug, t.CreatedBy, t.CreatedAt.UTC())
	if err != nil {
		return tenant.Tenant{}, repo.trapUniquenessErr(err, "inserting tenant")
	}
	return t, nil
}

func (repo tenantRepository) GetTenantByID(ctx context.Context, id int) (tenant.Tenant, error) {
	var r tenantRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT id, name, subdomain, slug, created_by, created_at FROM tenant WHERE id = $1`, id)
	if err != nil {
		return tenant.Tenant{}, repo.trapNoRowsErr(err, "finding tenant by ID")
	}
	return r.tenant(), nil
}

func (repo tenantRepository) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	var r tenantRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT id, name, subdomain, slug, created_by, created_at FROM tenant WHERE subdomain = $1`, subdomain)
	if err != nil {
		return tenant.Tenant{}, repo.trapNoRowsErr(err, "finding tenant by subdomain")
	}
	return r.tenant(), nil
}

func (repo tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	var rows []tenantRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, subdomain, slug, created_by, created_at FROM tenant ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(rows))
	for _, r := range rows {
		tenants = append(tenants, r.tenant())
	}
	return tenants, nil
}
