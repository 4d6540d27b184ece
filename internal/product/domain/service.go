package domain

import (
	"context"
	"errors"
)

// CreateProductRequest carries validated input for product creation.
type CreateProductRequest struct {
	Name  string
	Price float64
}

// Service exposes product use-cases.
type Service interface {
	Create(context.Context, CreateProductRequest) (Product, error)
	List(context.Context) ([]Product, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrNotFound     = errors.New("not_found")
)
