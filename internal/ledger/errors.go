package ledger

import "errors"

var (
	ErrAlreadyExists = errors.New("item already exists")
	ErrNotFound      = errors.New("item not found")
	ErrItemRented    = errors.New("item is currently rented")
	ErrNotRented     = errors.New("item is not currently rented")
	ErrInvalidPeriod = errors.New("rental period must be between 1 day and 100 years")
	ErrInvalidItem   = errors.New("invalid item")

	ErrTransactionNotFound = errors.New("transaction not found")
)
