package domain

import (
	"context"
	"errors"
)

// CreateContactRequest carries validated input for contact creation.
type CreateContactRequest struct {
	Name     string
	Email    string
	Metadata map[string]any
}

// Service exposes contact use-cases.
type Service interface {
	Create(context.Context, CreateContactRequest) (Contact, error)
	List(context.Context) ([]Contact, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("not_found")
)
