// Package domain holds the approval workflow: which roles may perform which
// action and from which status.
package domain

import (
	"strings"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/shared/apperror"
)

// Action is an operation on a transaction.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionEdit     Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionValidate Action = "VALIDATE"
	ActionFinalize Action = "FINALIZE"
	ActionReject   Action = "REJECT"
)

// AuditName is the action name recorded in the audit log.
func (a Action) AuditName() string {
	return string(a) + "_TRANSACTION"
}

type rule struct {
	roles []userentity.Role
	// from lists the permitted source statuses. Empty means any status.
	from []entity.Status
	// to is the resulting status, or "" when the status does not change.
	to entity.Status
	// creatorAllowed lets the transaction's creator act regardless of role.
	creatorAllowed bool
}

var (
	allRoles     = []userentity.Role{userentity.RoleComptable, userentity.RoleManager, userentity.RoleAdmin}
	reviewers    = []userentity.Role{userentity.RoleManager, userentity.RoleAdmin}
	adminOnly    = []userentity.Role{userentity.RoleAdmin}
	notFinalized = []entity.Status{entity.StatusPending, entity.StatusValidated, entity.StatusRejected}
)

var policy = map[Action]rule{
	ActionCreate:   {roles: allRoles, to: entity.StatusPending},
	ActionValidate: {roles: reviewers, from: []entity.Status{entity.StatusPending}, to: entity.StatusValidated},
	ActionFinalize: {roles: adminOnly, from: []entity.Status{entity.StatusValidated}, to: entity.StatusFinalized},
	ActionReject:   {roles: reviewers, from: []entity.Status{entity.StatusPending, entity.StatusValidated}, to: entity.StatusRejected},
	ActionEdit:     {roles: adminOnly, from: notFinalized, creatorAllowed: true},
	ActionDelete:   {roles: adminOnly},
}

// AuthorizeRole checks the role part of the rule for action.
// Actions that also admit the creator pass here and are settled by AuthorizeOn.
func AuthorizeRole(action Action, role userentity.Role) error {
	r := policy[action]
	if r.creatorAllowed || role.In(r.roles...) {
		return nil
	}
	return forbidden(action, r)
}

// AuthorizeOn checks the full rule, including ownership, against an existing transaction.
func AuthorizeOn(action Action, actor *userentity.User, tx *entity.Transaction) error {
	r := policy[action]
	if actor.Role.In(r.roles...) {
		return nil
	}
	if r.creatorAllowed && tx.CreatedByID == actor.ID {
		return nil
	}
	return forbidden(action, r)
}

// CheckSource fails with BadRequest when tx's status does not permit action.
func CheckSource(action Action, tx *entity.Transaction) error {
	r := policy[action]
	if len(r.from) == 0 {
		return nil
	}
	for _, s := range r.from {
		if tx.Status == s {
			return nil
		}
	}
	if tx.Status == entity.StatusFinalized {
		return apperror.BadRequest("transaction #%d is finalized and cannot be modified", tx.ID)
	}
	return apperror.BadRequest("cannot %s transaction #%d in status %s", strings.ToLower(string(action)), tx.ID, tx.Status)
}

// Target returns the status action moves a transaction to, or "" when it does not change.
func Target(action Action) entity.Status {
	return policy[action].to
}

func forbidden(action Action, r rule) error {
	names := make([]string, 0, len(r.roles))
	for _, role := range r.roles {
		names = append(names, string(role))
	}
	who := strings.Join(names, " or ")
	if r.creatorAllowed {
		who = "the creator or " + who
	}
	return apperror.Unauthorized("only %s can %s transactions", who, strings.ToLower(string(action)))
}
