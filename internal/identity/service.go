// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/plumeapp/plume/internal/observability"
)

// ErrInvalidCredentials is returned for any login failure, whether the
// account is missing or the password is wrong. The two cases are not
// distinguishable from outside.
var ErrInvalidCredentials = oops.Code("IDENTITY_INVALID_CREDENTIALS").Errorf("invalid email or password")

// dummyPasswordDigest is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake digest that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake digest for timing attack prevention, not a credential.
const dummyPasswordDigest = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service coordinates account operations: registration, login, session
// resolution, profile update, deletion, and listing.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	validator *Validator
	logger    *slog.Logger
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(users, hasher, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("IDENTITY_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("IDENTITY_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("IDENTITY_NIL_DEPENDENCY").Errorf("logger is required")
	}
	validator, err := NewValidator(users)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}, nil
}

// Register creates a new account from allow-listed signup input.
// On success it returns the stored user and the plaintext session token to
// hand to the client; the account is authenticated immediately.
// Validation failures come back as ValidationErrors; a lost uniqueness race
// at write time is reported the same way, as a field error on email.
func (s *Service) Register(ctx context.Context, p Params) (*User, string, error) {
	normalized, verrs, err := s.validator.ValidateNew(ctx, p)
	if err != nil {
		return nil, "", err
	}
	if verrs != nil {
		observability.RecordRegistration("invalid")
		return nil, "", verrs
	}

	digest, err := s.hasher.Hash(normalized.Password)
	if err != nil {
		return nil, "", oops.Code("IDENTITY_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	token, tokenHash, err := GenerateRememberToken()
	if err != nil {
		return nil, "", oops.Code("IDENTITY_REGISTER_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	now := time.Now()
	user := &User{
		ID:             ulid.Make(),
		Name:           normalized.Name,
		Email:          normalized.Email,
		PasswordDigest: digest,
		RememberHash:   tokenHash,
		Admin:          false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost the uniqueness race after validation passed.
			observability.RecordRegistration("invalid")
			return nil, "", ValidationErrors{{Field: "email", Message: "has already been taken"}}
		}
		observability.RecordRegistration("error")
		return nil, "", oops.Code("IDENTITY_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	observability.RecordRegistration("ok")
	s.logger.Info("user registered", "user_id", user.ID.String())
	return user, token, nil
}

// Login authenticates by email and password. On success it rotates the
// session token and returns the user with the new plaintext token; every
// previously issued token for the account stops resolving at that moment.
// Uses constant-time operations to prevent timing-based address enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Determine which digest to verify against (real or dummy for timing
	// attack prevention).
	targetDigest := dummyPasswordDigest
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("IDENTITY_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetDigest = user.PasswordDigest
		userExists = true
	}

	// Always verify (constant-time relative to account existence).
	valid, verifyErr := s.hasher.Verify(password, targetDigest)
	if verifyErr != nil && userExists {
		// A malformed stored digest verifies false, not fatal.
		s.logger.Warn("stored password digest is malformed", "user_id", user.ID.String())
		valid = false
	}

	if !userExists || !valid {
		if userExists {
			user.RecordFailure()
			_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort audit trail
			s.logger.Info("login failed", "user_id", user.ID.String(), "failed_attempts", user.FailedAttempts)
		}
		observability.RecordLogin("invalid")
		return nil, "", ErrInvalidCredentials
	}

	user.RecordSuccess()

	token, tokenHash, err := GenerateRememberToken()
	if err != nil {
		return nil, "", oops.Code("IDENTITY_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	// The rotated token hash travels in the same write as the rest of the
	// record, so a reader never sees one without the other.
	user.RememberHash = tokenHash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", oops.Code("IDENTITY_LOGIN_FAILED").
			With("operation", "persist rotated token").
			Wrap(err)
	}

	observability.RecordLogin("ok")
	return user, token, nil
}

// Resolve returns the user whose current session token matches the
// presented value. A miss reports ErrNotFound regardless of whether the
// token is malformed, superseded, or was never issued; callers treat all of
// those as "no session". Resolve has no side effects and is idempotent
// until the next token rotation.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	user, err := s.users.GetByRememberHash(ctx, HashRememberToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("IDENTITY_RESOLVE_FAILED").
			With("operation", "get user by token hash").
			Wrap(err)
	}
	return user, nil
}

// UpdateProfile applies allow-listed profile input to an existing account.
// A blank password keeps the current one. On success the session token is
// rotated, in the same write as the profile fields, and the new plaintext
// token is returned.
func (s *Service) UpdateProfile(ctx context.Context, id ulid.ULID, p Params) (*User, string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	normalized, verrs, err := s.validator.ValidateUpdate(ctx, p, user)
	if err != nil {
		return nil, "", err
	}
	if verrs != nil {
		return nil, "", verrs
	}

	user.Name = normalized.Name
	user.Email = normalized.Email
	if normalized.Password != "" {
		digest, err := s.hasher.Hash(normalized.Password)
		if err != nil {
			return nil, "", oops.Code("IDENTITY_UPDATE_FAILED").
				With("operation", "hash password").
				Wrap(err)
		}
		user.PasswordDigest = digest
	}

	token, tokenHash, err := GenerateRememberToken()
	if err != nil {
		return nil, "", oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}
	user.RememberHash = tokenHash
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", ValidationErrors{{Field: "email", Message: "has already been taken"}}
		}
		return nil, "", oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "update user").
			Wrap(err)
	}

	return user, token, nil
}

// Delete removes an account together with its microposts. Authorization is
// the caller's responsibility; pass the request through authz.Decide first.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("IDENTITY_DELETE_FAILED").
			With("operation", "delete user").
			With("user_id", id.String()).
			Wrap(err)
	}
	s.logger.Info("user destroyed", "user_id", id.String())
	return nil
}

// Get retrieves a single account by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns a page of accounts ordered by creation time.
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, error) {
	if page < 1 {
		page = 1
	}
	return s.users.ListPage(ctx, page, perPage)
}

// Promote grants the admin role. This is the only path that sets the flag;
// it exists for the operator CLI and is never reachable from Params.
func (s *Service) Promote(ctx context.Context, id ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Admin {
		return user, nil
	}
	user.Admin = true
	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, oops.Code("IDENTITY_PROMOTE_FAILED").
			With("operation", "update user").
			With("user_id", id.String()).
			Wrap(err)
	}
	s.logger.Info("user promoted to admin", "user_id", id.String())
	return user, nil
}
