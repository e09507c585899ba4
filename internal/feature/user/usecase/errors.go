package usecase

import (
	"errors"

	"fintrack_backend/internal/shared/apperror"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = apperror.New(apperror.KindNotFound, "user not found")

	// ErrEmailAlreadyExists is returned when an email is already registered to another user.
	ErrEmailAlreadyExists = apperror.New(apperror.KindConflict, "email already exists")

	// ErrUserReferenced is returned when deleting a user still referenced by transactions.
	ErrUserReferenced = apperror.New(apperror.KindConflict, "user is referenced by existing transactions")

	// ErrInvalidCredentials is returned for every login or refresh failure so that
	// callers cannot tell an unknown email from a wrong password or a disabled account.
	ErrInvalidCredentials = apperror.New(apperror.KindInvalidCredentials, "invalid email or password")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown, revoked or expired.
	ErrInvalidRefreshToken = apperror.New(apperror.KindInvalidCredentials, "invalid refresh token")

	// ErrAdminRequired is returned when a non-ADMIN attempts a user mutation.
	ErrAdminRequired = apperror.New(apperror.KindUnauthorized, "only ADMIN can manage users")

	// ErrDirectoryReadForbidden is returned when a COMPTABLE attempts to read the user directory.
	ErrDirectoryReadForbidden = apperror.New(apperror.KindUnauthorized, "only ADMIN or MANAGER can read users")

	// ErrActorUnavailable is returned when the caller's account no longer exists or is deactivated.
	ErrActorUnavailable = apperror.New(apperror.KindUnauthorized, "caller account is not active")

	// ErrSessionNotFound is returned by session repositories when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")
)
