package tenant

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

var (
	subdomainTag   = "subdomain"
	subdomainText  = "only lowercase alphanumeric characters and hyphens are allowed"
	subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

	// labels that can never be claimed by a tenant; they collide with the
	// platform's own surfaces.
	reservedSubdomains = []string{"admin", "api", "app", "mail", "www"}

	errReservedSubdomain = "this subdomain is reserved"
)

// Tenant is an isolated customer/organization unit identified by a unique
// subdomain label. Subdomain and Slug are immutable after creation; there is
// no update or delete path.
type Tenant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	Slug      string    `json:"slug"`
	CreatedBy null.Int  `json:"created_by"` // null when created by system bootstrap
	CreatedAt time.Time `json:"created_at"` // UTC
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subdomainTag, subdomainValidation)
	core.RegisterCustomTranslation(validate, translator, subdomainTag, subdomainText)
}

func subdomainValidation(fl validator.FieldLevel) bool {
	return subdomainRegex.MatchString(fl.Field().String())
}

// Slugify lowers `s` and collapses every run of non-alphanumeric characters
// into a single hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(slugRegex.ReplaceAllString(s, "-"), "-")
}

// NewTenant contains information needed to provision a new Tenant.
type NewTenant struct {
	Name      string `json:"name" validate:"required"`
	Subdomain string `json:"subdomain" validate:"required,subdomain"`
}

func (nt *NewTenant) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Subdomain = core.CleanString(nt.Subdomain, true /* lower */)
	if nt.Subdomain == "" {
		nt.Subdomain = Slugify(nt.Name)
	}

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if i := sort.SearchStrings(reservedSubdomains, nt.Subdomain); i < len(reservedSubdomains) {
		if match := reservedSubdomains[i]; nt.Subdomain == match {
			return core.NewValidationError(nil, core.FieldError{Field: "subdomain", Error: errReservedSubdomain})
		}
	}
	return svc.CheckUniqueness(ctx, nt.Subdomain, Slugify(nt.Name))
}
