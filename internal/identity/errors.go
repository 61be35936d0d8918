// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package identity

import "errors"

// ErrNotFound is returned when a requested entity does not exist. An
// unresolvable session token reports the same error as a missing user so
// that invalid and expired sessions are indistinguishable from no session.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when a write loses the
// email-uniqueness race. The service maps it back onto a field error.
var ErrDuplicateEmail = errors.New("email already taken")
