// Package common defines shared constants and sentinel errors used across
// tipkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbiddenRole  = errors.New("caller lacks the required role")

	// Input validation, always reported before any I/O.
	ErrValidation = errors.New("invalid input")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Custody errors. Never retried.
	ErrSecretUnavailable  = errors.New("secret unavailable")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrLayerMismatch      = errors.New("ciphertext layering mismatch")
	ErrProfileForbidden   = errors.New("operation not allowed in this environment")

	// Chain errors.
	ErrTransferReverted = errors.New("transfer reverted")
	ErrAmbiguousEvent   = errors.New("more than one transfer event in transaction")
)
