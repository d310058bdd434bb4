// Package authz is the single gate mapping a caller's role to the operations
// it may perform. Services call Check at their entry point instead of
// comparing role strings themselves.
package authz

import (
	"admitgate/entity"
	"admitgate/lib/fault"
)

type Operation string

const (
	OpRegister          Operation = "register"
	OpIssueCredential   Operation = "credential.issue"
	OpRequestApproval   Operation = "approval.request"
	OpCancelRequest     Operation = "approval.cancel"
	OpListOwnRequests   Operation = "approval.list_own"
	OpDecideRequest     Operation = "approval.decide"
	OpListPending       Operation = "approval.list_pending"
	OpVerifyCredential  Operation = "checkin.verify"
	OpListCheckIns      Operation = "checkin.list"
	OpManagePreApproval Operation = "preapproval.manage"
	OpManageRoles       Operation = "roles.manage"
)

var registrant = []Operation{
	OpRegister,
	OpIssueCredential,
	OpRequestApproval,
	OpCancelRequest,
	OpListOwnRequests,
}

var grants = map[entity.Role]map[Operation]struct{}{
	entity.RoleUser: toSet(registrant),
	entity.RoleSecurity: toSet(registrant,
		OpVerifyCredential,
		OpListCheckIns,
	),
	entity.RoleAdmin: toSet(registrant,
		OpDecideRequest,
		OpListPending,
		OpVerifyCredential,
		OpListCheckIns,
		OpManagePreApproval,
		OpManageRoles,
	),
}

var denials = map[Operation]string{
	OpVerifyCredential:  "Only security staff can verify QR codes",
	OpListCheckIns:      "Only security staff can view check-ins",
	OpDecideRequest:     "Only admins can process approval requests",
	OpListPending:       "Only admins can view pending approval requests",
	OpManagePreApproval: "Only admins can manage pre-approvals",
	OpManageRoles:       "Only admins can set roles",
}

// Allowed reports whether role may perform op. Unknown roles get nothing.
func Allowed(role entity.Role, op Operation) bool {
	ops, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}

// Check returns Unauthenticated for a missing caller and PermissionDenied
// when the caller's role does not grant op.
func Check(caller *entity.Caller, op Operation) error {
	if caller.IsZero() {
		return fault.Unauthenticated("You must be logged in to perform this action")
	}
	if Allowed(caller.Role, op) {
		return nil
	}
	if msg, ok := denials[op]; ok {
		return fault.PermissionDenied(msg)
	}
	return fault.PermissionDenied("You do not have permission to perform this action")
}

func toSet(base []Operation, extra ...Operation) map[Operation]struct{} {
	m := make(map[Operation]struct{}, len(base)+len(extra))
	for _, op := range base {
		m[op] = struct{}{}
	}
	for _, op := range extra {
		m[op] = struct{}{}
	}
	return m
}
