package core

import (
	"context"
	"errors"
	"log/slog"

	"admitgate/entity"
	"admitgate/internal/checkin"
	"admitgate/internal/credential"
	"admitgate/internal/registration"
	"admitgate/lib/fault"
	"admitgate/lib/sl"
)

type AuthService interface {
	CallerByToken(ctx context.Context, token string) (*entity.Caller, error)
}

type Registrar interface {
	Register(ctx context.Context, caller *entity.Caller, eventId string) (*registration.Outcome, error)
}

type CredentialIssuer interface {
	Issue(ctx context.Context, caller *entity.Caller, eventId string) (*credential.Issued, error)
}

type ApprovalService interface {
	Request(ctx context.Context, caller *entity.Caller, eventId string) (*entity.ApprovalRequest, bool, error)
	Decide(ctx context.Context, reviewer *entity.Caller, requestId string, approve bool) (*entity.ApprovalRequest, error)
	Cancel(ctx context.Context, caller *entity.Caller, requestId string) error
	ListPending(ctx context.Context, reviewer *entity.Caller) ([]*entity.ApprovalRequest, error)
	ListMine(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error)
}

type CheckInService interface {
	Verify(ctx context.Context, caller *entity.Caller, token, expectedEventId string) (*checkin.Verification, error)
	ListCheckIns(ctx context.Context, caller *entity.Caller, eventId string) ([]*entity.CheckIn, error)
}

type PreApprovalService interface {
	LinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error
	UnlinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error
	AllowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error
	DisallowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error
	AddMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error
	RemoveMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error
}

type RoleService interface {
	SetRole(ctx context.Context, caller *entity.Caller, userId string, role entity.Role) (*entity.User, error)
}

// Core is the single handler object the http layer talks to. Each service
// is attached with its setter; a call into a missing one fails as Internal.
type Core struct {
	auth        AuthService
	registrar   Registrar
	issuer      CredentialIssuer
	approvals   ApprovalService
	checkins    CheckInService
	preApproval PreApprovalService
	roles       RoleService
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetRegistrar(registrar Registrar) {
	c.registrar = registrar
}

func (c *Core) SetCredentialIssuer(issuer CredentialIssuer) {
	c.issuer = issuer
}

func (c *Core) SetApprovalService(approvals ApprovalService) {
	c.approvals = approvals
}

func (c *Core) SetCheckInService(checkins CheckInService) {
	c.checkins = checkins
}

func (c *Core) SetPreApprovalService(preApproval PreApprovalService) {
	c.preApproval = preApproval
}

func (c *Core) SetRoleService(roles RoleService) {
	c.roles = roles
}

func (c *Core) notConnected(name string) error {
	c.log.Error("service not connected", slog.String("service", name))
	return fault.Internal(name+" service not connected", errors.New("service not connected"))
}

func (c *Core) AuthenticateByToken(ctx context.Context, token string) (*entity.Caller, error) {
	if c.auth == nil {
		return nil, c.notConnected("auth")
	}
	return c.auth.CallerByToken(ctx, token)
}

func (c *Core) Register(ctx context.Context, caller *entity.Caller, eventId string) (*registration.Outcome, error) {
	if c.registrar == nil {
		return nil, c.notConnected("registration")
	}
	return c.registrar.Register(ctx, caller, eventId)
}

func (c *Core) IssueCredential(ctx context.Context, caller *entity.Caller, eventId string) (*credential.Issued, error) {
	if c.issuer == nil {
		return nil, c.notConnected("credential")
	}
	return c.issuer.Issue(ctx, caller, eventId)
}

func (c *Core) RequestApproval(ctx context.Context, caller *entity.Caller, eventId string) (*entity.ApprovalRequest, bool, error) {
	if c.approvals == nil {
		return nil, false, c.notConnected("approval")
	}
	return c.approvals.Request(ctx, caller, eventId)
}

func (c *Core) DecideApproval(ctx context.Context, caller *entity.Caller, requestId string, approve bool) (*entity.ApprovalRequest, error) {
	if c.approvals == nil {
		return nil, c.notConnected("approval")
	}
	return c.approvals.Decide(ctx, caller, requestId, approve)
}

func (c *Core) CancelApproval(ctx context.Context, caller *entity.Caller, requestId string) error {
	if c.approvals == nil {
		return c.notConnected("approval")
	}
	return c.approvals.Cancel(ctx, caller, requestId)
}

func (c *Core) PendingApprovals(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error) {
	if c.approvals == nil {
		return nil, c.notConnected("approval")
	}
	return c.approvals.ListPending(ctx, caller)
}

func (c *Core) MyApprovals(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error) {
	if c.approvals == nil {
		return nil, c.notConnected("approval")
	}
	return c.approvals.ListMine(ctx, caller)
}

func (c *Core) VerifyCredential(ctx context.Context, caller *entity.Caller, token, eventId string) (*checkin.Verification, error) {
	if c.checkins == nil {
		return nil, c.notConnected("check-in")
	}
	return c.checkins.Verify(ctx, caller, token, eventId)
}

// EventCheckIns returns the check-in log; unique keeps the first scan of
// each attendee.
func (c *Core) EventCheckIns(ctx context.Context, caller *entity.Caller, eventId string, unique bool) ([]*entity.CheckIn, error) {
	if c.checkins == nil {
		return nil, c.notConnected("check-in")
	}
	list, err := c.checkins.ListCheckIns(ctx, caller, eventId)
	if err != nil || !unique {
		return list, err
	}
	return checkin.UniqueAttendees(list), nil
}

func (c *Core) LinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.LinkGroup(ctx, caller, eventId, groupId)
}

func (c *Core) UnlinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.UnlinkGroup(ctx, caller, eventId, groupId)
}

func (c *Core) AllowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.AllowUser(ctx, caller, eventId, userId)
}

func (c *Core) DisallowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.DisallowUser(ctx, caller, eventId, userId)
}

func (c *Core) AddGroupMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.AddMember(ctx, caller, groupId, userId)
}

func (c *Core) RemoveGroupMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error {
	if c.preApproval == nil {
		return c.notConnected("pre-approval")
	}
	return c.preApproval.RemoveMember(ctx, caller, groupId, userId)
}

func (c *Core) SetRole(ctx context.Context, caller *entity.Caller, userId string, role entity.Role) (*entity.User, error) {
	if c.roles == nil {
		return nil, c.notConnected("role")
	}
	return c.roles.SetRole(ctx, caller, userId, role)
}
