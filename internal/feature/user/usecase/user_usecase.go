// Package usecase implements the user directory and authentication business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/shared/apperror"
	"fintrack_backend/internal/shared/optional"
)

const (
	// minPasswordLength is the shortest accepted password.
	minPasswordLength = 8
	minNameLength     = 2
	maxNameLength     = 100

	// auditEntityUser is the entity type recorded in audit entries for users.
	auditEntityUser = "User"
)

// UserFilter narrows List results. Nil fields do not filter.
type UserFilter struct {
	Role     *entity.Role
	IsActive *bool
}

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user. It returns ErrEmailAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail returns ErrUserNotFound when no user matches.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID returns ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// ExistsByEmail reports whether any user holds email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns users matching filter in storage order.
	List(ctx context.Context, filter UserFilter) ([]entity.User, error)

	// Update writes every column of user. It returns ErrEmailAlreadyExists on a duplicate email.
	Update(ctx context.Context, user *entity.User) error

	// Delete hard-deletes the user. It returns ErrUserNotFound when nothing was deleted.
	Delete(ctx context.Context, id uint) error
}

// TransactionReferenceCounter reports how many ledger transactions reference a user
// as creator, validator or finalizer.
type TransactionReferenceCounter interface {
	CountReferencesToUser(ctx context.Context, userID uint) (int64, error)
}

// AuditRecorder appends audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *uint, action, entityType string, entityID uint, details string) error
}

// TxManager runs fn inside a single storage transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRevoker revokes every refresh session of a user.
type SessionRevoker interface {
	RevokeAllByUserID(ctx context.Context, userID uint) error
}

// CreateUserInput carries the fields of a new user.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.Role
}

// UpdateUserInput carries a partial update. Absent fields are left untouched.
type UpdateUserInput struct {
	Email     optional.Value[string]
	FirstName optional.Value[string]
	LastName  optional.Value[string]
	Role      optional.Value[entity.Role]
	IsActive  optional.Value[bool]
}

// UserUsecase implements the user directory.
type UserUsecase struct {
	users    UserRepository
	refs     TransactionReferenceCounter
	audit    AuditRecorder
	tx       TxManager
	sessions SessionRevoker
	validate *validator.Validate
	hashCost int
}

// NewUserUsecase creates a UserUsecase.
func NewUserUsecase(users UserRepository, refs TransactionReferenceCounter, audit AuditRecorder, tx TxManager, sessions SessionRevoker) *UserUsecase {
	return &UserUsecase{
		users:    users,
		refs:     refs,
		audit:    audit,
		tx:       tx,
		sessions: sessions,
		validate: validator.New(),
		hashCost: bcrypt.DefaultCost,
	}
}

// ResolveActor loads the caller's account and refuses deleted or deactivated accounts.
func (u *UserUsecase) ResolveActor(ctx context.Context, actorID uint) (*entity.User, error) {
	actor, err := u.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrActorUnavailable
		}
		return nil, err
	}
	if !actor.IsActive {
		return nil, ErrActorUnavailable
	}
	return actor, nil
}

// requireRole resolves the actor and checks it holds one of roles.
func (u *UserUsecase) requireRole(ctx context.Context, actorID uint, denied error, roles ...entity.Role) (*entity.User, error) {
	actor, err := u.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.In(roles...) {
		return nil, denied
	}
	return actor, nil
}

// FindByEmail returns the user registered under email.
func (u *UserUsecase) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return u.users.FindByEmail(ctx, email)
}

// FindByID returns the user with id.
func (u *UserUsecase) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// GetUser returns a user for an ADMIN or MANAGER caller.
func (u *UserUsecase) GetUser(ctx context.Context, actorID, id uint) (*entity.User, error) {
	if _, err := u.requireRole(ctx, actorID, ErrDirectoryReadForbidden, entity.RoleAdmin, entity.RoleManager); err != nil {
		return nil, err
	}
	return u.users.FindByID(ctx, id)
}

// ListUsers returns users matching filter for an ADMIN or MANAGER caller.
func (u *UserUsecase) ListUsers(ctx context.Context, actorID uint, filter UserFilter) ([]entity.User, error) {
	if _, err := u.requireRole(ctx, actorID, ErrDirectoryReadForbidden, entity.RoleAdmin, entity.RoleManager); err != nil {
		return nil, err
	}
	return u.users.List(ctx, filter)
}

// CreateUser registers a new active user with a hashed password.
// The password is hashed only after the actor and the email have been checked.
func (u *UserUsecase) CreateUser(ctx context.Context, actorID uint, in CreateUserInput) (*entity.User, error) {
	if err := u.validateCreate(in); err != nil {
		return nil, err
	}

	var user *entity.User
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, err := u.requireRole(ctx, actorID, ErrAdminRequired, entity.RoleAdmin)
		if err != nil {
			return err
		}
		exists, err := u.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.hashCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user = &entity.User{
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      in.Role,
			Password:  string(hashed),
			IsActive:  true,
		}
		if err := u.users.Create(ctx, user); err != nil {
			return err
		}
		return u.audit.Record(ctx, &actor.ID, "CREATE_USER", auditEntityUser, user.ID,
			fmt.Sprintf("Created user %s with role %s", user.Email, user.Role))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BootstrapAdmin creates an ADMIN account without an acting user.
// It returns created=false and the existing user when email is already registered.
func (u *UserUsecase) BootstrapAdmin(ctx context.Context, in CreateUserInput) (user *entity.User, created bool, err error) {
	in.Role = entity.RoleAdmin
	if err := u.validateCreate(in); err != nil {
		return nil, false, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.hashCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := u.users.FindByEmail(ctx, in.Email)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		user = &entity.User{
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      entity.RoleAdmin,
			Password:  string(hashed),
			IsActive:  true,
		}
		if err := u.users.Create(ctx, user); err != nil {
			return err
		}
		created = true
		return u.audit.Record(ctx, nil, "BOOTSTRAP_ADMIN", auditEntityUser, user.ID,
			fmt.Sprintf("Bootstrapped admin %s", user.Email))
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

// Update applies the present fields of in to user id.
func (u *UserUsecase) Update(ctx context.Context, actorID, id uint, in UpdateUserInput) (*entity.User, error) {
	if err := u.validateUpdate(in); err != nil {
		return nil, err
	}

	var (
		user        *entity.User
		deactivated bool
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, err := u.requireRole(ctx, actorID, ErrAdminRequired, entity.RoleAdmin)
		if err != nil {
			return err
		}
		user, err = u.users.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if email, ok := in.Email.Get(); ok && email != user.Email {
			exists, err := u.users.ExistsByEmail(ctx, email)
			if err != nil {
				return err
			}
			if exists {
				return ErrEmailAlreadyExists
			}
		}

		wasActive := user.IsActive
		in.Email.Apply(&user.Email)
		in.FirstName.Apply(&user.FirstName)
		in.LastName.Apply(&user.LastName)
		in.Role.Apply(&user.Role)
		in.IsActive.Apply(&user.IsActive)
		deactivated = wasActive && !user.IsActive

		if err := u.users.Update(ctx, user); err != nil {
			return err
		}
		return u.audit.Record(ctx, &actor.ID, "UPDATE_USER", auditEntityUser, user.ID,
			fmt.Sprintf("Updated user #%d", user.ID))
	})
	if err != nil {
		return nil, err
	}
	if deactivated {
		u.revokeSessions(ctx, user.ID)
	}
	return user, nil
}

// Delete hard-deletes user id. Users still referenced by a transaction cannot be deleted.
func (u *UserUsecase) Delete(ctx context.Context, actorID, id uint) error {
	return u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, err := u.requireRole(ctx, actorID, ErrAdminRequired, entity.RoleAdmin)
		if err != nil {
			return err
		}
		user, err := u.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		refs, err := u.refs.CountReferencesToUser(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrUserReferenced
		}
		if err := u.audit.Record(ctx, &actor.ID, "DELETE_USER", auditEntityUser, user.ID,
			fmt.Sprintf("Deleted user %s", user.Email)); err != nil {
			return err
		}
		return u.users.Delete(ctx, id)
	})
}

// Deactivate marks user id inactive and revokes its refresh sessions.
// Deactivating an inactive user succeeds without change.
func (u *UserUsecase) Deactivate(ctx context.Context, actorID, id uint) error {
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, err := u.requireRole(ctx, actorID, ErrAdminRequired, entity.RoleAdmin)
		if err != nil {
			return err
		}
		user, err := u.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return nil
		}
		user.IsActive = false
		if err := u.users.Update(ctx, user); err != nil {
			return err
		}
		return u.audit.Record(ctx, &actor.ID, "DEACTIVATE_USER", auditEntityUser, user.ID,
			fmt.Sprintf("Deactivated user %s", user.Email))
	})
	if err != nil {
		return err
	}
	u.revokeSessions(ctx, id)
	return nil
}

// revokeSessions runs after commit. A failure is logged and not returned because
// Refresh re-checks the account status anyway.
func (u *UserUsecase) revokeSessions(ctx context.Context, userID uint) {
	if u.sessions == nil {
		return
	}
	if err := u.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		zap.L().Warn("failed to revoke sessions", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (u *UserUsecase) validateCreate(in CreateUserInput) error {
	if err := u.validateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < minPasswordLength {
		return apperror.BadRequest("password must be at least %d characters long", minPasswordLength)
	}
	if err := validateName("firstName", in.FirstName); err != nil {
		return err
	}
	if err := validateName("lastName", in.LastName); err != nil {
		return err
	}
	if _, ok := entity.ParseRole(string(in.Role)); !ok {
		return apperror.BadRequest("unknown role %q", in.Role)
	}
	return nil
}

func (u *UserUsecase) validateUpdate(in UpdateUserInput) error {
	if email, ok := in.Email.Get(); ok {
		if err := u.validateEmail(email); err != nil {
			return err
		}
	}
	if name, ok := in.FirstName.Get(); ok {
		if err := validateName("firstName", name); err != nil {
			return err
		}
	}
	if name, ok := in.LastName.Get(); ok {
		if err := validateName("lastName", name); err != nil {
			return err
		}
	}
	if role, ok := in.Role.Get(); ok {
		if _, known := entity.ParseRole(string(role)); !known {
			return apperror.BadRequest("unknown role %q", role)
		}
	}
	return nil
}

func (u *UserUsecase) validateEmail(email string) error {
	if err := u.validate.Var(email, "required,email,max=255"); err != nil {
		return apperror.BadRequest("invalid email format")
	}
	return nil
}

func validateName(field, name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return apperror.BadRequest("%s must be between %d and %d characters", field, minNameLength, maxNameLength)
	}
	return nil
}
