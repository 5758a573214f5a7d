// Package identity maps an email address to the billing platform's client
// id, which almost every billing operation requires.
package identity

import (
	"context"
	"strings"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/models"
)

// Directory is the slice of the billing adapter the resolver needs.
type Directory interface {
	GetClientByEmail(ctx context.Context, email string) (*models.ExternalClientIdentity, error)
}

type Resolver struct {
	directory Directory
}

// NewResolver accepts a nil directory; every lookup then fails as Misconfigured.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the identity for email. It is read-only and safe to repeat.
func (r *Resolver) Resolve(ctx context.Context, email string) (*models.ExternalClientIdentity, error) {
	const op = "identity.Resolve"
	if r == nil || r.directory == nil {
		return nil, apperr.Misconfigured(op, "billing")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation(op, "email is required")
	}
	client, err := r.directory.GetClientByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if client == nil || !client.Resolved() {
		return nil, apperr.ClientNotFound(op, email)
	}
	return client, nil
}

// ResolveClientID is Resolve reduced to the client id.
func (r *Resolver) ResolveClientID(ctx context.Context, email string) (string, error) {
	client, err := r.Resolve(ctx, email)
	if err != nil {
		return "", err
	}
	return client.ClientID, nil
}
