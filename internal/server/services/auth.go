// Package services contains the server-side business logic. AuthService
// registers accounts across the local credential store and the remote users
// service, and logs accounts in with a profile merge that degrades to local
// data when the users service is unreachable.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/reconcile"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultCompensationAttempts = 3
	DefaultCompensationTimeout  = 10 * time.Second
	defaultCompensationBackoff  = 50 * time.Millisecond
)

// CredentialStore is the part of the credential repository AuthService uses.
type CredentialStore interface {
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	Delete(ctx context.Context, id string) error
}

// ProfileClient talks to the users service.
type ProfileClient interface {
	Create(ctx context.Context, p models.ProfileCreate) error
	FindOne(ctx context.Context, id string) (*models.Profile, error)
}

type TokenSigner interface {
	Sign(id models.Identity) (string, error)
}

// PasswordHasher must return auth.ErrPasswordMismatch from Compare when the
// password is wrong.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthOptions tune the compensation step of registration.
type AuthOptions struct {
	// CompensationAttempts is the total number of delete attempts.
	CompensationAttempts uint64
	// CompensationTimeout bounds all delete attempts together.
	CompensationTimeout time.Duration
	CompensationBackoff time.Duration
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User  models.CredentialView
	Token string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  models.UserView
	Token string
}

type AuthService struct {
	store    CredentialStore
	profiles ProfileClient
	signer   TokenSigner
	hasher   PasswordHasher
	journal  reconcile.Journal
	logger   logging.Logger
	opts     AuthOptions
	now      func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewAuthService(
	store CredentialStore,
	profiles ProfileClient,
	signer TokenSigner,
	hasher PasswordHasher,
	journal reconcile.Journal,
	logger logging.Logger,
	opts AuthOptions,
) *AuthService {
	if logger == nil {
		logger = logging.Nop{}
	}
	if journal == nil {
		journal = reconcile.NewLogJournal(logger)
	}
	if opts.CompensationAttempts == 0 {
		opts.CompensationAttempts = DefaultCompensationAttempts
	}
	if opts.CompensationTimeout <= 0 {
		opts.CompensationTimeout = DefaultCompensationTimeout
	}
	if opts.CompensationBackoff <= 0 {
		opts.CompensationBackoff = defaultCompensationBackoff
	}

	return &AuthService{
		store:    store,
		profiles: profiles,
		signer:   signer,
		hasher:   hasher,
		journal:  journal,
		logger:   logger.With("module", "auth"),
		opts:     opts,
		now:      time.Now,
	}
}

// registration carries one saga run.
type registration struct {
	ctx        context.Context
	req        models.RegisterRequest
	cred       *models.Credential
	token      string
	profileErr error
	err        error
}

// Register creates the local credential, asks the users service for the
// matching profile and issues a token. When the profile call fails the
// credential is deleted again and ErrProfileCreationFailed is returned.
//
// Once the credential exists the saga no longer follows ctx cancellation, so
// a caller that goes away cannot leave a credential without a profile.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*RegisterResult, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	reg := &registration{ctx: ctx, req: req}
	state := stateStart

	for !state.terminal() {
		next := s.step(reg, state)
		s.logger.Debug(reg.ctx, "registration step", "from", state.String(), "to", next.String(), "email", req.Email)
		state = next
	}

	if state == stateFailed {
		return nil, s.registerError(reg.ctx, reg.err)
	}

	s.logger.Info(reg.ctx, "account registered", "credential_id", reg.cred.ID, "email", reg.cred.Email)
	return &RegisterResult{User: reg.cred.View(), Token: reg.token}, nil
}

func (s *AuthService) step(reg *registration, state registrationState) registrationState {
	switch state {
	case stateStart:
		return s.createLocalRecord(reg)

	case stateLocalRecordCreated:
		err := s.profiles.Create(reg.ctx, models.ProfileCreate{
			ID:        reg.cred.ID,
			DNI:       reg.req.DNI,
			FirstName: reg.req.FirstName,
			LastName:  reg.req.LastName,
		})
		if err != nil {
			reg.profileErr = err
			return stateProfileCreationFailed
		}
		return stateProfileCreated

	case stateProfileCreated:
		token, err := s.signer.Sign(reg.cred.Identity())
		if err != nil {
			reg.err = fmt.Errorf("sign token: %w", err)
			return stateFailed
		}
		reg.token = token
		return stateTokenIssued

	case stateTokenIssued:
		return stateDone

	case stateProfileCreationFailed:
		s.logger.Error(reg.ctx, "profile creation failed, rolling back credential",
			"credential_id", reg.cred.ID, "email", reg.cred.Email, "error", reg.profileErr)
		return stateCompensating

	case stateCompensating:
		s.compensate(reg)
		reg.err = fmt.Errorf("%w: %v", ErrProfileCreationFailed, reg.profileErr)
		return stateFailed

	default:
		reg.err = fmt.Errorf("unexpected registration state %s", state)
		return stateFailed
	}
}

func (s *AuthService) createLocalRecord(reg *registration) registrationState {
	hash, err := s.hasher.Hash(reg.req.Password)
	if err != nil {
		reg.err = fmt.Errorf("hash password: %w", err)
		return stateFailed
	}

	cred, err := s.store.Create(reg.ctx, &models.Credential{
		Email:        reg.req.Email,
		PasswordHash: hash,
		Role:         reg.req.Role,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			reg.err = ErrDuplicateEmail
		} else {
			reg.err = fmt.Errorf("create credential: %w", err)
		}
		return stateFailed
	}

	reg.cred = cred
	reg.ctx = context.WithoutCancel(reg.ctx)
	return stateLocalRecordCreated
}

// compensate deletes the credential of a failed registration, retrying with
// backoff. A record that is already gone counts as deleted. When every
// attempt fails the credential is reported as an orphan.
func (s *AuthService) compensate(reg *registration) {
	ctx, cancel := context.WithTimeout(reg.ctx, s.opts.CompensationTimeout)
	defer cancel()

	attempts := 0
	backoff := retry.WithMaxRetries(s.opts.CompensationAttempts-1, retry.NewExponential(s.opts.CompensationBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := s.store.Delete(ctx, reg.cred.ID)
		if err == nil || errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		s.logger.Warn(ctx, "credential rollback attempt failed", "credential_id", reg.cred.ID, "attempt", attempts, "error", err)
		return retry.RetryableError(err)
	})
	if err == nil {
		s.logger.Info(reg.ctx, "credential rolled back", "credential_id", reg.cred.ID, "attempts", attempts)
		return
	}

	s.logger.Error(reg.ctx, "credential rollback failed",
		"event", reconcile.EventReconciliationRequired,
		"credential_id", reg.cred.ID,
		"email", reg.cred.Email,
		"attempts", attempts,
		"error", err,
	)

	jctx, jcancel := context.WithTimeout(reg.ctx, s.opts.CompensationTimeout)
	defer jcancel()

	orphan := reconcile.Orphan{
		CredentialID: reg.cred.ID,
		Email:        reg.cred.Email,
		Reason:       "profile creation failed",
		Error:        err.Error(),
		Attempts:     attempts,
		DetectedAt:   s.now().UTC(),
	}
	if jerr := s.journal.Record(jctx, orphan); jerr != nil {
		s.logger.Error(reg.ctx, "orphan journal write failed",
			"event", reconcile.EventReconciliationRequired,
			"credential_id", reg.cred.ID,
			"error", jerr,
		)
	}
}

func (s *AuthService) registerError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrProfileCreationFailed):
		return err
	default:
		s.logger.Error(ctx, "registration failed", "error", err)
		return ErrRegistrationFailed
	}
}

// Login verifies email and password, then enriches the account with its
// profile. A failing profile lookup is logged and the account is returned
// with local data only. The token always reflects the local credential.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	cred, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(req.Password)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login failed", "stage", "find_credential", "error", err)
		return nil, ErrLoginFailed
	}

	if err := s.hasher.Compare(cred.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login failed", "stage", "compare_password", "credential_id", cred.ID, "error", err)
		return nil, ErrLoginFailed
	}

	profile, err := s.profiles.FindOne(ctx, cred.ID)
	if err != nil {
		s.logger.Warn(ctx, "could not fetch profile, using auth data only", "credential_id", cred.ID, "error", err)
		profile = nil
	}

	token, err := s.signer.Sign(cred.Identity())
	if err != nil {
		s.logger.Error(ctx, "login failed", "stage", "sign_token", "credential_id", cred.ID, "error", err)
		return nil, ErrLoginFailed
	}

	return &LoginResult{User: models.MergeUserView(cred.View(), profile), Token: token}, nil
}

// burnCompare spends one hash comparison so unknown emails take as long as
// wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummy = h
		}
	})
	if s.dummy != "" {
		_ = s.hasher.Compare(s.dummy, password)
	}
}
