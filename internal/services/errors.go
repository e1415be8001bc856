package services

import (
	"errors"

	"isdn/internal/domain"
	"isdn/internal/repos"
)

var (
	ErrBadCreds  = errors.New("invalid username or password")
	ErrEmptyCart = errors.New("cart is empty")
	ErrForbidden = errors.New("not allowed for this account")

	ErrNotFound          = repos.ErrNotFound
	ErrInsufficientStock = repos.ErrInsufficientStock
	ErrInvalid           = domain.ErrInvalid
)
