package core

import (
	"context"
	"testing"

	"admitgate/entity"
	"admitgate/internal/checkin"
	"admitgate/lib/fault"
	"admitgate/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingServicesFailInternal(t *testing.T) {
	c := New(logger.Discard())
	ctx := context.Background()
	caller := &entity.Caller{UserId: "U1", Role: entity.RoleAdmin}

	_, err := c.AuthenticateByToken(ctx, "t")
	assert.True(t, fault.Is(err, fault.KindInternal))
	_, err = c.Register(ctx, caller, "E1")
	assert.True(t, fault.Is(err, fault.KindInternal))
	_, _, err = c.RequestApproval(ctx, caller, "E1")
	assert.True(t, fault.Is(err, fault.KindInternal))
	_, err = c.VerifyCredential(ctx, caller, "t", "E1")
	assert.True(t, fault.Is(err, fault.KindInternal))
	assert.True(t, fault.Is(c.LinkGroup(ctx, caller, "E1", "G1"), fault.KindInternal))
	_, err = c.SetRole(ctx, caller, "U1", entity.RoleAdmin)
	assert.True(t, fault.Is(err, fault.KindInternal))
}

type stubCheckIns struct {
	list []*entity.CheckIn
}

func (s stubCheckIns) Verify(context.Context, *entity.Caller, string, string) (*checkin.Verification, error) {
	return &checkin.Verification{Valid: true}, nil
}

func (s stubCheckIns) ListCheckIns(context.Context, *entity.Caller, string) ([]*entity.CheckIn, error) {
	return s.list, nil
}

func TestEventCheckInsUnique(t *testing.T) {
	c := New(logger.Discard())
	c.SetCheckInService(stubCheckIns{list: []*entity.CheckIn{
		{Id: "C1", UserId: "U1"},
		{Id: "C2", UserId: "U2"},
		{Id: "C3", UserId: "U1"},
	}})

	all, err := c.EventCheckIns(context.Background(), nil, "E1", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	unique, err := c.EventCheckIns(context.Background(), nil, "E1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, []string{unique[0].Id, unique[1].Id})
}
