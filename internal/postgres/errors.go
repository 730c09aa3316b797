package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/lib/pq"
)

// postgres error codes the ledger reacts to
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
)

// translateError marks driver errors with the ledger sentinels. Lock and
// serialization failures become version conflicts so the orchestrator retries them.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return ierr.WithError(err).
			WithHint("A concurrent update won the race, please retry").
			Mark(ierr.ErrVersionConflict)
	case pqUniqueViolation:
		return ierr.WithError(err).
			WithHint("A record with the same reference already exists").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrAlreadyExists)
	case pqForeignKeyViolation:
		return ierr.WithError(err).
			WithHint("Referenced record does not exist").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrValidation)
	case pqCheckViolation:
		return ierr.WithError(err).
			WithHint("Value violates a ledger constraint").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrValidation)
	}
	return ierr.WithError(err).Mark(ierr.ErrDatabase)
}

// TranslateError is used by repositories to classify driver errors, adding
// a hint for anything that is not already classified.
func TranslateError(err error, hint string) error {
	if err == nil {
		return nil
	}
	translated := translateError(err)
	if ierr.Is(translated, ierr.ErrDatabase) {
		return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrDatabase)
	}
	return translated
}
