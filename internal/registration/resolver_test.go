package registration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"admitgate/entity"
	"admitgate/internal/database/memdb"
	"admitgate/internal/notify"
	"admitgate/lib/fault"
	"admitgate/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func caller(id string) *entity.Caller {
	return &entity.Caller{UserId: id, Role: entity.RoleUser}
}

func newResolver(db Repository) (*Resolver, *notify.Recorder) {
	rec := &notify.Recorder{}
	return NewResolver(db, rec, logger.Discard()), rec
}

func count(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}

func TestRegisterOpenEventIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		db := memdb.New()
		db.PutEvent(entity.Event{Id: "E1"})
		r, rec := newResolver(db)
		calls := rapid.IntRange(1, 8).Draw(t, "calls")

		for i := 0; i < calls; i++ {
			out, err := r.Register(context.Background(), caller("U1"), "E1")
			require.NoError(t, err)
			assert.True(t, out.Success)
			assert.Equal(t, PathOpen, out.Path)
			if i == 0 {
				assert.Equal(t, msgRegistered, out.Message)
			} else {
				assert.Equal(t, msgAlready, out.Message)
				assert.True(t, out.AlreadyRegistered)
			}
		}

		e, _ := db.GetEvent(context.Background(), "E1")
		assert.Equal(t, 1, count(e.Attendees, "U1"))
		assert.Len(t, rec.Notices, 1)
	})
}

func TestRegisterConcurrentConverges(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1"})
	r := NewResolver(db, nil, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Register(context.Background(), caller("U1"), "E1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	e, _ := db.GetEvent(context.Background(), "E1")
	assert.Equal(t, []string{"U1"}, e.Attendees)
}

func TestRegisterApprovalPaths(t *testing.T) {
	tests := []struct {
		name    string
		event   entity.Event
		groups  []entity.Group
		request *entity.ApprovalRequest
		path    Path
		message string
	}{
		{
			name:    "pre-approved user",
			event:   entity.Event{Id: "E1", RequiresApproval: true, PreApprovedUsers: []string{"U1"}},
			path:    PathUser,
			message: msgViaUser,
		},
		{
			name:    "pre-approved group",
			event:   entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G2", "G1"}},
			groups:  []entity.Group{{Id: "G1", Members: []string{"U1"}}, {Id: "G3", Members: []string{"U1"}}},
			path:    PathGroup,
			message: msgViaGroup,
		},
		{
			name:    "approved request",
			event:   entity.Event{Id: "E1", RequiresApproval: true},
			request: &entity.ApprovalRequest{Id: "R1", EventId: "E1", UserId: "U1", Status: entity.StatusApproved},
			path:    PathRequest,
			message: msgViaRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memdb.New()
			db.PutEvent(tt.event)
			db.PutUser(entity.User{Id: "U1"})
			for _, g := range tt.groups {
				db.PutGroup(g)
			}
			if tt.request != nil {
				db.PutApprovalRequest(*tt.request)
			}
			r, rec := newResolver(db)

			out, err := r.Register(context.Background(), caller("U1"), "E1")
			require.NoError(t, err)
			assert.Equal(t, tt.path, out.Path)
			assert.Equal(t, tt.message, out.Message)
			if tt.path == PathGroup {
				assert.Equal(t, []string{"G1"}, out.Groups)
			}

			e, _ := db.GetEvent(context.Background(), "E1")
			assert.Equal(t, []string{"U1"}, e.Attendees)
			assert.Equal(t, []string{entity.TopicRegistrationRecord}, rec.Topics())
		})
	}
}

func TestRegisterDenied(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutUser(entity.User{Id: "U1"})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U2"}})
	db.PutApprovalRequest(entity.ApprovalRequest{Id: "R1", EventId: "E1", UserId: "U1", Status: entity.StatusPending})
	db.PutApprovalRequest(entity.ApprovalRequest{Id: "R2", EventId: "E1", UserId: "U3", Status: entity.StatusApproved})
	r, rec := newResolver(db)

	_, err := r.Register(context.Background(), caller("U1"), "E1")
	assert.True(t, fault.Is(err, fault.KindPermissionDenied))
	assert.Equal(t, msgDenied, fault.Message(err))

	e, _ := db.GetEvent(context.Background(), "E1")
	assert.Empty(t, e.Attendees)
	assert.Empty(t, rec.Notices)
}

func TestRegisterStaleGroupCacheDenies(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutUser(entity.User{Id: "U1", Groups: []string{"G1"}})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U2"}})
	r, _ := newResolver(db)

	_, err := r.Register(context.Background(), caller("U1"), "E1")
	assert.True(t, fault.Is(err, fault.KindPermissionDenied))

	u, _ := db.GetUser(context.Background(), "U1")
	assert.Empty(t, u.Groups)
}

func TestRegisterFreshMemberAllowedBeforeRepair(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutUser(entity.User{Id: "U1"})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U1"}})
	r, _ := newResolver(db)

	out, err := r.Register(context.Background(), caller("U1"), "E1")
	require.NoError(t, err)
	assert.Equal(t, PathGroup, out.Path)

	u, _ := db.GetUser(context.Background(), "U1")
	assert.Equal(t, []string{"G1"}, u.Groups)
}

func TestRegisterCacheRepairFailureDoesNotBlock(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutUser(entity.User{Id: "U1", Groups: []string{"G9"}})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U1"}})
	db.FailOn("SetUserGroups", errors.New("write conflict"))
	r, _ := newResolver(db)

	out, err := r.Register(context.Background(), caller("U1"), "E1")
	require.NoError(t, err)
	assert.Equal(t, PathGroup, out.Path)
	assert.Equal(t, 1, db.Calls("SetUserGroups"))
}

func TestRegisterSkipsRepairWhenCacheMatches(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutUser(entity.User{Id: "U1", Groups: []string{"G2", "G1"}})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U1"}})
	db.PutGroup(entity.Group{Id: "G2", Members: []string{"U1"}})
	r, _ := newResolver(db)

	_, err := r.Register(context.Background(), caller("U1"), "E1")
	require.NoError(t, err)
	assert.Zero(t, db.Calls("SetUserGroups"))
}

func TestRegisterMissingUserStillChecksGroups(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1", RequiresApproval: true, PreApprovedGroups: []string{"G1"}})
	db.PutGroup(entity.Group{Id: "G1", Members: []string{"U1"}})
	r, _ := newResolver(db)

	out, err := r.Register(context.Background(), caller("U1"), "E1")
	require.NoError(t, err)
	assert.Equal(t, PathGroup, out.Path)
	assert.Zero(t, db.Calls("SetUserGroups"))
}

func TestRegisterArgumentErrors(t *testing.T) {
	db := memdb.New()
	r, _ := newResolver(db)

	_, err := r.Register(context.Background(), nil, "E1")
	assert.True(t, fault.Is(err, fault.KindUnauthenticated))

	_, err = r.Register(context.Background(), caller("U1"), "")
	assert.True(t, fault.Is(err, fault.KindInvalidArgument))
	assert.Equal(t, msgNoEventId, fault.Message(err))

	_, err = r.Register(context.Background(), caller("U1"), "missing")
	assert.True(t, fault.Is(err, fault.KindNotFound))
	assert.Equal(t, msgNoEvent, fault.Message(err))
}

func TestRegisterStoreFailureIsInternal(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1"})
	db.FailOn("GetEvent", errors.New("connection reset"))
	r, _ := newResolver(db)

	_, err := r.Register(context.Background(), caller("U1"), "E1")
	assert.True(t, fault.Is(err, fault.KindInternal))
}

// flakyAttendees fails the first AddAttendee call; landed controls whether
// that failed call was applied anyway.
type flakyAttendees struct {
	*memdb.DB
	landed bool
	failed atomic.Bool
}

func (f *flakyAttendees) AddAttendee(ctx context.Context, eventId, userId string) error {
	if f.failed.CompareAndSwap(false, true) {
		if f.landed {
			_ = f.DB.AddAttendee(ctx, eventId, userId)
		}
		return errors.New("socket timeout")
	}
	return f.DB.AddAttendee(ctx, eventId, userId)
}

func TestEnrollRetriesOnceAfterReread(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1"})
	flaky := &flakyAttendees{DB: db}
	r, rec := newResolver(flaky)

	require.NoError(t, r.Enroll(context.Background(), "E1", "U1"))
	adds, reads := db.Calls("AddAttendee"), db.Calls("GetEvent")

	e, _ := db.GetEvent(context.Background(), "E1")
	assert.Equal(t, []string{"U1"}, e.Attendees)
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, reads)
	assert.Len(t, rec.Notices, 1)
}

func TestEnrollDoesNotRetryWhenFirstAttemptLanded(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1"})
	flaky := &flakyAttendees{DB: db, landed: true}
	r, _ := newResolver(flaky)

	require.NoError(t, r.Enroll(context.Background(), "E1", "U1"))
	assert.Equal(t, 1, db.Calls("AddAttendee"))
}

func TestEnrollGivesUpAfterOneRetry(t *testing.T) {
	db := memdb.New()
	db.PutEvent(entity.Event{Id: "E1"})
	db.FailOn("AddAttendee", errors.New("primary stepped down"))
	r, rec := newResolver(db)

	assert.Error(t, r.Enroll(context.Background(), "E1", "U1"))
	assert.Equal(t, 2, db.Calls("AddAttendee"))
	assert.Empty(t, rec.Notices)
}

func TestEnrollMissingEvent(t *testing.T) {
	r, _ := newResolver(memdb.New())
	assert.ErrorIs(t, r.Enroll(context.Background(), "E1", "U1"), entity.ErrNotFound)
}
