// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the REST client the sync endpoints use for pull
// fetches and writes.
//
// [RESTClient] decouples endpoints from the HTTP library. Responses are
// decoded into [models.Envelope] values; the caller checks for the expected
// envelope key. Non-2xx statuses are mapped to the sentinel errors in
// errors.go so callers can use [errors.Is] (e.g. [ErrNotFound] for 404).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-sync-cache/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/rest_client_mock.go -package=mock

// RESTClient performs JSON requests against the entity API. uri is resolved
// against the configured base address.
type RESTClient interface {
	// Get fetches uri and decodes the response envelope.
	Get(ctx context.Context, uri string) (models.Envelope, error)

	// Put sends body to uri and decodes the response envelope.
	Put(ctx context.Context, uri string, body any) (models.Envelope, error)

	// Post sends body to uri and decodes the response envelope.
	Post(ctx context.Context, uri string, body any) (models.Envelope, error)

	// Delete removes the resource at uri. The response body is ignored.
	Delete(ctx context.Context, uri string) error
}
