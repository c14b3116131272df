package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

// Roles (closed enum)
const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleClientAdmin = "CLIENT_ADMIN"
	RoleEmployee    = "EMPLOYEE"
	RoleStudent     = "STUDENT"
)

var (
	// AllRoles is kept sorted for binary search.
	AllRoles = []string{RoleClientAdmin, RoleEmployee, RoleStudent, RoleSuperAdmin}

	// TenantRoles are the roles that must belong to a tenant.
	TenantRoles = []string{RoleClientAdmin, RoleEmployee, RoleStudent}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Employee", Value: RoleEmployee},
		{Name: "Client Admin", Value: RoleClientAdmin},
		{Name: "Super Admin", Value: RoleSuperAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an account on the platform. A SUPER_ADMIN has no tenant; every
// other role belongs to exactly one tenant.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	TenantID     null.Int  `json:"tenant_id"` // null for super-admins
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsSuperAdmin() bool  { return u.Role == RoleSuperAdmin }
func (u User) IsClientAdmin() bool { return u.Role == RoleClientAdmin }
func (u User) IsEmployee() bool    { return u.Role == RoleEmployee }
func (u User) IsStudent() bool     { return u.Role == RoleStudent }

// BelongsTo reports whether the user is a member of the given tenant.
func (u User) BelongsTo(tenantID int) bool {
	return u.TenantID.Valid && u.TenantID.Int == tenantID
}

// NewUser contains information needed to create a new User.
// When Password is empty, a random one is generated and an invite email with a
// set-password link is sent instead.
type NewUser struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service, tenantID null.Int) error {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if err := checkRoleTenantCoherence(nu.Role, tenantID); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email, tenantID)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,role"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, validate *validator.Validate, origUsr User, svc Service) error {
	name := core.CleanString(uu.FullName)
	if name != "" {
		uu.FullName = name
	} else {
		uu.FullName = origUsr.FullName
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Role == "" {
		uu.Role = origUsr.Role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if err := checkRoleTenantCoherence(uu.Role, origUsr.TenantID); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr.TenantID, origUsr)
}

// checkRoleTenantCoherence enforces the tenant-reference invariant:
// SUPER_ADMIN has no tenant, every other role has exactly one.
func checkRoleTenantCoherence(role string, tenantID null.Int) error {
	if role == RoleSuperAdmin && tenantID.Valid {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "a super admin cannot belong to a tenant"})
	}
	if role != RoleSuperAdmin && !tenantID.Valid {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "this role requires a tenant"})
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	// TenantID is set by the server from the resolved request context, never
	// bound from user input.
	TenantID null.Int `json:"-" query:"-"`

	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return !qf.TenantID.Valid && qf.Search == "" && qf.Roles == nil && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
