/*******************************************************************************
* File name: validator.go
*
* Description: the request validator layer sitting in front of the stripe
* engine, enforcing preconditions before the engine ever touches disk:
* create requires the filename NOT already name an intact stripe,
* retrieve/update/delete require that it DOES, and every ingested payload
* is checked against a size cap.
*******************************************************************************/

package validator

import (
	"errors"
	"fmt"

	"stripedfs/internal/stripe"
)

// Sentinel errors the HTTP facade maps to status codes (see
// internal/httpapi/helpers.go).
var (
	ErrConflict    = errors.New("validator: file already exists")
	ErrNotFound    = errors.New("validator: file does not exist")
	ErrTooLarge    = errors.New("validator: payload exceeds maximum size")
	ErrEmptyName   = errors.New("validator: filename must not be empty")
	ErrInvalidName = errors.New("validator: filename must not contain path separators")
)

// Validator wraps an Engine with the precondition checks each operation
// requires before it may delegate to the engine.
type Validator struct {
	engine  *stripe.Engine
	maxSize int64
}

// New builds a Validator over engine, capping payloads at maxSize bytes.
func New(engine *stripe.Engine, maxSize int64) *Validator {
	return &Validator{engine: engine, maxSize: maxSize}
}

func validateName(filename string) error {
	if filename == "" {
		return ErrEmptyName
	}
	for _, r := range filename {
		if r == '/' || r == '\\' {
			return ErrInvalidName
		}
	}
	return nil
}

// Create rejects a request whose filename already resolves to an intact
// stripe (409) before checking whether the payload exceeds the configured
// maximum (413): existence is checked first, matching the precedence of
// the other operations below.
func (v *Validator) Create(filename string, payload []byte, contentType string) (*stripe.Descriptor, error) {
	if err := validateName(filename); err != nil {
		return nil, err
	}
	if v.engine.IntegrityOrPurge(filename) {
		return nil, ErrConflict
	}
	if int64(len(payload)) > v.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(payload), v.maxSize)
	}
	return v.engine.Create(filename, payload, contentType)
}

// Retrieve rejects a request for a filename that is not an intact stripe
// (404).
func (v *Validator) Retrieve(filename string) ([]byte, error) {
	if err := validateName(filename); err != nil {
		return nil, err
	}
	if !v.engine.IntegrityOrPurge(filename) {
		return nil, ErrNotFound
	}
	return v.engine.Retrieve(filename)
}

// Update rejects a request for a filename that is not an intact stripe
// (404) before checking whether the replacement payload exceeds the size
// cap (413).
func (v *Validator) Update(filename string, payload []byte, contentType string) (*stripe.Descriptor, error) {
	if err := validateName(filename); err != nil {
		return nil, err
	}
	if !v.engine.IntegrityOrPurge(filename) {
		return nil, ErrNotFound
	}
	if int64(len(payload)) > v.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(payload), v.maxSize)
	}
	return v.engine.Update(filename, payload, contentType)
}

// Delete rejects a request for a filename that is not an intact stripe
// (404).
func (v *Validator) Delete(filename string) error {
	if err := validateName(filename); err != nil {
		return err
	}
	if !v.engine.IntegrityOrPurge(filename) {
		return ErrNotFound
	}
	return v.engine.Delete(filename)
}

// Repair has no precondition and is passed through unchanged.
func (v *Validator) Repair(blockID int) error {
	return v.engine.Repair(blockID)
}
