package roles

import (
	"context"
	"errors"
	"testing"

	"admitgate/entity"
	"admitgate/internal/database/memdb"
	"admitgate/lib/fault"
	"admitgate/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = &entity.Caller{UserId: "A1", Role: entity.RoleAdmin}

func setup() (*memdb.DB, *Service) {
	db := memdb.New()
	db.PutUser(entity.User{Id: "U1", Email: "guard@example.com", DisplayName: "Gil"})
	return db, New(db, logger.Discard())
}

func TestPromoteToSecurityCreatesProfile(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()

	u, err := svc.SetRole(ctx, admin, "U1", entity.RoleSecurity)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSecurity, u.Role)

	stored, _ := db.GetUser(ctx, "U1")
	assert.Equal(t, entity.RoleSecurity, stored.Role)

	profile, err := db.GetSecurityStaff(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "guard@example.com", profile.Email)
	assert.NotNil(t, profile.AssignedEvents)
	assert.Zero(t, profile.ScanCount)
}

func TestRepromotionKeepsScanCount(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	_, err := svc.SetRole(ctx, admin, "U1", entity.RoleSecurity)
	require.NoError(t, err)
	require.NoError(t, db.RecordScan(ctx, "U1", svc.now()))

	_, err = svc.SetRole(ctx, admin, "U1", entity.RoleUser)
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, admin, "U1", entity.RoleSecurity)
	require.NoError(t, err)

	profile, _ := db.GetSecurityStaff(ctx, "U1")
	assert.EqualValues(t, 1, profile.ScanCount)
}

func TestSetAdminDoesNotCreateProfile(t *testing.T) {
	db, svc := setup()
	_, err := svc.SetRole(context.Background(), admin, "U1", entity.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, db.Calls("EnsureSecurityStaff"))
}

func TestSetRoleErrors(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	security := &entity.Caller{UserId: "S1", Role: entity.RoleSecurity}

	_, err := svc.SetRole(ctx, security, "U1", entity.RoleAdmin)
	assert.True(t, fault.Is(err, fault.KindPermissionDenied))
	_, err = svc.SetRole(ctx, admin, "U1", entity.Role("owner"))
	assert.True(t, fault.Is(err, fault.KindInvalidArgument))
	_, err = svc.SetRole(ctx, admin, "", entity.RoleAdmin)
	assert.True(t, fault.Is(err, fault.KindInvalidArgument))
	_, err = svc.SetRole(ctx, admin, "U9", entity.RoleAdmin)
	assert.True(t, fault.Is(err, fault.KindNotFound))

	db.FailOn("SetUserRole", errors.New("down"))
	_, err = svc.SetRole(ctx, admin, "U1", entity.RoleAdmin)
	assert.True(t, fault.Is(err, fault.KindInternal))
}
