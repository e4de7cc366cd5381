// Package services implements the answer recording engine: the session
// resolver that decides replace or append per category, the yield history
// projector, the grouped category view, and the yield history reader.
//
// This file centralizes the service-level error taxonomy. Handlers translate
// these into HTTP status codes; services never pick status codes themselves.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateActiveRecord is returned when registering an animal number
	// that already has active answers.
	ErrDuplicateActiveRecord = errors.New("an active record already exists for this animal")

	// ErrInvalidReference indicates that an animal, category, language or
	// question id does not exist in the catalog or does not apply.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrNotFound indicates that the animal instance has no data.
	ErrNotFound = errors.New("not found")

	// ErrInconsistentState is returned when the yield history contains rows
	// that cannot be reconciled with the answers being written.
	ErrInconsistentState = errors.New("inconsistent state")

	// ErrInvalidInput is returned for malformed requests (missing answers,
	// missing or unparseable dates, duplicate questions in one batch).
	ErrInvalidInput = errors.New("invalid input")
)

// ReferenceError names the catalog entity that could not be resolved.
type ReferenceError struct {
	Entity string
	ID     any
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Entity, e.ID, ErrInvalidReference)
}

func (e *ReferenceError) Unwrap() error { return ErrInvalidReference }

func refErr(entity string, id any) error { return &ReferenceError{Entity: entity, ID: id} }

// InputError names the offending field of a request.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func inputErr(field, reason string) error { return &InputError{Field: field, Reason: reason} }
