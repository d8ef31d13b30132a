// Package services defines the business logic for deals, retainers, and
// collection synchronization. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrDealNotFound indicates that the requested deal does not exist.
	ErrDealNotFound = errors.New("deal not found")

	// ErrRetainerNotFound indicates that the requested retainer does not exist.
	ErrRetainerNotFound = errors.New("retainer not found")

	// ErrEmptyBusinessName is returned when a quick-add request carries no
	// business name.
	ErrEmptyBusinessName = errors.New("business name is empty")

	// ErrEmptyClientName is returned when a retainer is created without a
	// client name.
	ErrEmptyClientName = errors.New("client name is empty")

	// ErrInvalidStage is returned when a stage value is outside the fixed
	// pipeline set.
	ErrInvalidStage = errors.New("invalid pipeline stage")

	// ErrInvalidActivityType is returned when an activity type is outside
	// the allowed set.
	ErrInvalidActivityType = errors.New("invalid activity type")

	// ErrReservedRetainerID is returned when a caller tries to create or
	// rename a retainer into the reconciler's id namespace.
	ErrReservedRetainerID = errors.New("retainer id prefix is reserved for stripe-managed records")

	// ErrMalformedSnapshot is returned when an import payload is not valid
	// JSON for the {deals, retainers} document shape.
	ErrMalformedSnapshot = errors.New("malformed snapshot document")
)
