package main

import (
	"context"
	"fmt"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/tenant"
)

// addTenant provisions a tenant outside the API, eg. during initial setup.
// CreatedBy stays null to mark a bootstrap tenant.
func (cli *commandLine) addTenant(name, subdomain string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	subdomain = core.CleanString(subdomain, true /* lower */)

	slug := tenant.Slugify(name)
	if subdomain == "" {
		subdomain = slug
	}

	if err := cli.tenantRepo.CheckSubdomainUniqueness(ctx, subdomain, slug); err != nil {
		return err
	}
	t, err := cli.tenantRepo.CreateTenant(ctx, tenant.Tenant{
		Name:      name,
		Subdomain: subdomain,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("tenant %q provisioned with subdomain %q\n", t.Name, t.Subdomain)
	return nil
}
