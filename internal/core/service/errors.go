package service

import (
	"errors"
	"fmt"
)

const (
	msgEmptyOrder      = "Please select at least one item before submitting"
	msgIncompleteRow   = "Please select an item for all rows before adding a new one"
	msgInvalidQuantity = "Quantity must be a positive whole number"
	msgLastRow         = "An order needs at least one row"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrEmptyOrder      = fmt.Errorf("%w: %s", ErrValidation, msgEmptyOrder)
	ErrIncompleteRow   = fmt.Errorf("%w: %s", ErrValidation, msgIncompleteRow)
	ErrInvalidQuantity = fmt.Errorf("%w: %s", ErrValidation, msgInvalidQuantity)
	ErrLastRow         = fmt.Errorf("%w: %s", ErrValidation, msgLastRow)
	ErrUnknownField    = fmt.Errorf("%w: unknown row field", ErrValidation)

	ErrRowNotFound  = errors.New("row not found")
	ErrSubmission   = errors.New("order submission failed")
	ErrAdminAction  = errors.New("admin action failed")
	ErrNotAdmin     = errors.New("admin scope required")
	ErrNotConfirmed = errors.New("action not confirmed")
	ErrClosed       = errors.New("synchronizer closed")
)
