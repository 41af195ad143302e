// Package repository provides data access to the attendance database.
// Sentinel errors defined here let the pipeline distinguish resolution
// failures, which are logged as unrecognized scans, from store faults,
// which fail the current event only.
package repository

import "errors"

// ErrUnknownTag is returned when a scanned tag has no card mapping.
var ErrUnknownTag = errors.New("tag not registered")

// ErrUnlinkedCard is returned when a card exists but no account
// references it.
var ErrUnlinkedCard = errors.New("card not linked to an account")
