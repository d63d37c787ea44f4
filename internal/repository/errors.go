// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios and pick HTTP statuses
// without matching on error strings.
package repository

import "errors"

// ErrEmailExists is returned when a user cannot be created because the
// email address is already registered. It is produced both by the explicit
// existence check and by the unique index at insert time, so a registration
// that loses a race still surfaces as a duplicate rather than a generic
// storage failure.
var ErrEmailExists = errors.New("email already exists")

// ErrNoteNotFound is returned when a note does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable: every
// single-note query carries an (id AND owner_id) predicate so callers can
// never probe for the existence of another user's notes.
var ErrNoteNotFound = errors.New("note not found")
