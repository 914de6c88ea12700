// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package devserver

import "errors"

var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrUnknownCollection is returned for a path naming no configured
	// collection.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrEntityNotFound is returned when no entity has the requested id.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMissingEnvelope is returned when a request body lacks the entity
	// or collection key.
	ErrMissingEnvelope = errors.New("request body lacks the expected envelope key")

	// ErrNoFields is returned for an entity write carrying nothing but an id,
	// which subscribers would read as a deletion.
	ErrNoFields = errors.New("entity has no fields besides its id")

	errNoCollections = errors.New("no collections configured")
)
