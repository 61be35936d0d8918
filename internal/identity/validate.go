// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// FieldError is a single recoverable validation failure on one input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors accumulates field errors across all rules. It is a
// recoverable result, not a fatal condition: callers re-render the form.
type ValidationErrors []FieldError

// Error implements error.
func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// On returns the messages recorded for a field.
func (v ValidationErrors) On(field string) []string {
	var msgs []string
	for _, fe := range v {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Validator enforces field-level invariants on account input before any
// write is attempted. Rules run in a fixed order and every rule always runs,
// so simultaneous failures are reported together.
type Validator struct {
	users UserRepository
}

// NewValidator creates a Validator backed by the given repository for
// uniqueness checks.
func NewValidator(users UserRepository) (*Validator, error) {
	if users == nil {
		return nil, oops.Code("VALIDATOR_NIL_REPO").Errorf("user repository is required")
	}
	return &Validator{users: users}, nil
}

// ValidateNew checks signup input. On success it returns the normalized
// params (email lower-cased) and a nil ValidationErrors. The third return
// is reserved for store failures during the uniqueness lookup.
func (v *Validator) ValidateNew(ctx context.Context, p Params) (Params, ValidationErrors, error) {
	return v.validate(ctx, p, nil, true)
}

// ValidateUpdate checks profile-update input for an existing user. The
// password rules only apply when a new password is supplied; the current
// user's own email does not count against uniqueness.
func (v *Validator) ValidateUpdate(ctx context.Context, p Params, current *User) (Params, ValidationErrors, error) {
	if current == nil {
		return Params{}, nil, oops.Code("VALIDATOR_NIL_USER").Errorf("current user is required for update validation")
	}
	return v.validate(ctx, p, current, false)
}

func (v *Validator) validate(ctx context.Context, p Params, current *User, creating bool) (Params, ValidationErrors, error) {
	var errs ValidationErrors

	p.Email = strings.ToLower(p.Email)

	// Rule 1: name presence and length. The limit counts characters, not
	// bytes, matching the VARCHAR(50) column.
	switch {
	case p.Name == "":
		errs.add("name", "can't be blank")
	case utf8.RuneCountInString(p.Name) > MaxNameLength:
		errs.add("name", fmt.Sprintf("is too long (maximum is %d characters)", MaxNameLength))
	}

	// Rule 2: email presence, format, uniqueness. The uniqueness lookup is
	// skipped for malformed addresses; the store never sees garbage input
	// and a malformed address reports exactly one email error.
	wellFormed := false
	switch {
	case p.Email == "":
		errs.add("email", "can't be blank")
	case !emailRegex.MatchString(p.Email):
		errs.add("email", "is invalid")
	default:
		wellFormed = true
	}
	if wellFormed {
		taken, err := v.emailTaken(ctx, p.Email, current)
		if err != nil {
			return Params{}, nil, err
		}
		if taken {
			errs.add("email", "has already been taken")
		}
	}

	// Rule 3: password length, only when a password is supplied. A blank
	// password on update means "keep the current one".
	if p.Password != "" && len(p.Password) < MinPasswordLength {
		errs.add("password", fmt.Sprintf("is too short (minimum is %d characters)", MinPasswordLength))
	}

	// Rule 4: confirmation. Required on create; on update only when a new
	// password is being set. Presence of the confirmation is what makes the
	// password itself required at signup.
	if creating || p.Password != "" || p.PasswordConfirmation != "" {
		switch {
		case p.PasswordConfirmation == "":
			errs.add("password_confirmation", "can't be blank")
		case p.PasswordConfirmation != p.Password:
			errs.add("password_confirmation", "doesn't match password")
		}
	}

	if len(errs) > 0 {
		return Params{}, errs, nil
	}
	return p, nil, nil
}

// emailTaken reports whether another account already holds the address.
func (v *Validator) emailTaken(ctx context.Context, email string, current *User) (bool, error) {
	existing, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code("VALIDATOR_LOOKUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	if current != nil && existing.ID.Compare(current.ID) == 0 {
		return false, nil
	}
	return true, nil
}
