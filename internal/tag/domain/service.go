package domain

import (
	"context"
	"errors"
)

// CreateTagRequest carries validated input for tag creation.
type CreateTagRequest struct {
	Name string
}

// Service exposes tag use-cases.
type Service interface {
	// Create resolves the tag by name, inserting it only when absent.
	Create(context.Context, CreateTagRequest) (Tag, error)
	List(context.Context) ([]Tag, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
)
