package usecase

import (
	"fintrack_backend/internal/shared/apperror"
)

var (
	// ErrTransactionNotFound is returned when no transaction has the requested id.
	ErrTransactionNotFound = apperror.New(apperror.KindNotFound, "transaction not found")

	// ErrConcurrentModification is returned when the stored version no longer matches the one read.
	ErrConcurrentModification = apperror.New(apperror.KindConflict, "transaction was modified concurrently")

	// ErrReportForbidden guards the reporting queries.
	ErrReportForbidden = apperror.New(apperror.KindUnauthorized, "only MANAGER or ADMIN can view transaction reports")
)
