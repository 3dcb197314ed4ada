package oaf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the oaf package.
var (
	// ErrInvalidIndex is returned when an index lacks a required section or
	// an asset descriptor lacks a required field.
	ErrInvalidIndex = errors.New("oaf: invalid index")

	// ErrUnreferencedAsset is returned when an asset path is not present in
	// any ingested index.
	ErrUnreferencedAsset = errors.New("oaf: unreferenced asset")

	// ErrUnregisteredFragment is returned when a fragment id was never
	// ingested.
	ErrUnregisteredFragment = errors.New("oaf: unregistered fragment")

	// ErrOutOfRange is returned when an asset's byte range exceeds the
	// payload of its fragment.
	ErrOutOfRange = errors.New("oaf: asset range out of bounds")

	// ErrInvalidText is returned when an asset read as text is not valid UTF-8.
	ErrInvalidText = errors.New("oaf: invalid UTF-8 text")

	// ErrSizeChanged is returned when a source file no longer matches the
	// size recorded when it was packed.
	ErrSizeChanged = errors.New("oaf: file size changed")

	// ErrNoFetcher is returned when a fetch is attempted without a fetcher.
	ErrNoFetcher = errors.New("oaf: no fetcher configured")

	// ErrUnknownHandle is returned when an ephemeral handle is not registered.
	ErrUnknownHandle = errors.New("oaf: unknown handle")
)

// FragmentError records a failure to obtain a fragment.
type FragmentError struct {
	ID       string
	Location string
	Err      error
}

func (e *FragmentError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("fragment %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("fragment %s (%s): %v", e.ID, e.Location, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }
