package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/tenant"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")

	// ErrInvalidCredentials covers lookup miss and password mismatch; callers
	// must present it (and ErrAccountDisabled) with the same generic message.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account deactivated")
)

type (
	Repository interface {
		// CheckEmailUniqueness checks Email uniqueness within a tenant scope;
		// a null tenantID scopes the check to root-level (super-admin) users.
		CheckEmailUniqueness(ctx context.Context, email string, tenantID null.Int, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		// GetUserByEmail looks a user up by email within a tenant scope; a
		// null tenantID restricts the lookup to root-level users.
		GetUserByEmail(ctx context.Context, email string, tenantID null.Int) (User, error)
		// FilterUsers applies AND semantics on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on FullName or Email.
		FilterUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetUserLastLogin(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...int) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email string, tenantID null.Int, excludedUsers ...User) error
		Create(ctx context.Context, nu NewUser, tenantID null.Int) (User, error)
		Authenticate(ctx context.Context, email, pwd string, t *tenant.Tenant) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...int) error
		RequestPasswordReset(ctx context.Context, email string, t *tenant.Tenant) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, tenantID null.Int, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, tenantID, excludedUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser, tenantID null.Int) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		FullName:  nu.FullName,
		Role:      nu.Role,
		TenantID:  tenantID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	pwd := nu.Password
	invited := pwd == ""
	if invited {
		var err error
		if pwd, err = randomPassword(); err != nil {
			return User{}, errors.Wrap(err, "generating temporary password")
		}
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// duplicate email raced past the uniqueness pre-check
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewConflictError(err)
		}
		return User{}, err
	}

	if invited {
		svc.sendInviteMail(usr)
	}
	return usr, nil
}

// Authenticate implements the login lookup policy: a resolved tenant restricts
// the lookup to that tenant's users; the root context restricts it to
// root-level users (the super-admin accounts). Tenant membership is thereby
// re-validated on every login.
func (svc *service) Authenticate(ctx context.Context, email, pwd string, t *tenant.Tenant) (User, error) {
	var tenantID null.Int
	if t != nil {
		tenantID = null.IntFrom(t.ID)
	}

	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */), tenantID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDisabled
	}

	usr, err = svc.repo.SetUserLastLogin(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Email:     uu.Email,
		FullName:  uu.FullName,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// RequestPasswordReset mails a reset link to the matching active account, if
// any. The lookup is tenant-scoped exactly like Authenticate.
func (svc *service) RequestPasswordReset(ctx context.Context, email string, t *tenant.Tenant) error {
	var tenantID null.Int
	if t != nil {
		tenantID = null.IntFrom(t.ID)
	}

	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */), tenantID)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr, nil); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token := makeToken(usr)
	link := fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject: "Password Reset",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nFollow the link below to set a new password:\n%s\n\n"+
				"If you did not request a password reset, you can safely ignore this email.",
			usr.FullName, link),
	})
}

func (svc *service) sendInviteMail(usr User) {
	token := makeToken(usr)
	link := fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nAn account has been created for you. "+
				"Follow the link below to choose your password and sign in:\n%s",
			usr.FullName, link),
	})
}

const pwdAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!#%&*+-="

// randomPassword generates a throwaway password for invited users; they are
// expected to set their own via the invite link.
func randomPassword() (string, error) {
	buf := make([]byte, 24)
	max := big.NewInt(int64(len(pwdAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = pwdAlphabet[n.Int64()]
	}
	return string(buf), nil
}
