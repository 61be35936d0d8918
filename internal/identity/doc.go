// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

// Package identity provides account management for Plume.
//
// # Domain Types
//
// User is the account record. Create one through Service.Register so that
// validation, password hashing, and token issuance all happen together.
// Direct struct initialization bypasses validation and may create invalid
// state; repositories receive pre-validated records from the service.
//
// # Field Params
//
// External input (signup and profile forms) arrives as Params, an
// allow-listed projection of the form fields. The admin flag is not part of
// Params and cannot be set through any bulk update path.
//
// # Services
//
// Service coordinates registration, login, session resolution, profile
// update, and account deletion. It is created with NewService, which
// validates its dependencies.
package identity
