package main

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// resetPassword sets a new password for a user looked up by email within a
// tenant's scope; no tenant means the root-level super admins.
func (cli *commandLine) resetPassword(email, tenantSubdomain, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	var tenantID null.Int
	if tenantSubdomain != "" {
		t, err := cli.tenantRepo.GetTenantBySubdomain(ctx, core.CleanString(tenantSubdomain, true /* lower */))
		if err != nil {
			return err
		}
		tenantID = null.IntFrom(t.ID)
	}

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email, tenantID)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}
