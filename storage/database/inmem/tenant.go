package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/tenant"
)

type tenantRepository struct {
	db *tenantTable
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *DB) tenant.Repository {
	return &tenantRepository{db: db.tenant}
}

func (repo *tenantRepository) query() []tenant.Tenant {
	tenants := make([]tenant.Tenant, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tenants = append(tenants, *t)
	}
	return tenants
}

func (repo *tenantRepository) CheckSubdomainUniqueness(ctx context.Context, subdomain, slug string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.query() {
		if t.Subdomain == subdomain {
			return tenant.ErrSubdomainExists
		}
		if t.Slug == slug {
			return tenant.ErrSlugExists
		}
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Subdomain == t.Subdomain {
			return tenant.Tenant{}, tenant.ErrSubdomainExists
		}
		if existing.Slug == t.Slug {
			return tenant.Tenant{}, tenant.ErrSlugExists
		}
	}

	repo.db.pkCount++
	t.ID = repo.db.pkCount
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *tenantRepository) GetTenantByID(ctx context.Context, id int) (tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.query() {
		if t.Subdomain == subdomain {
			return t, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tenants := repo.query()
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].Name < tenants[j].Name })
	return tenants, nil
}
