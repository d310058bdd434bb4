// Package memdb is an in-process roster with the same method set and
// per-document atomicity as the mongo store. It backs the service when mongo
// is disabled and is the roster used by tests.
package memdb

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"admitgate/entity"
)

type DB struct {
	mu        sync.Mutex
	events    map[string]*entity.Event
	users     map[string]*entity.User
	groups    map[string]*entity.Group
	approvals map[string]*entity.ApprovalRequest
	staff     map[string]*entity.SecurityStaff
	checkIns  []*entity.CheckIn
	failures  map[string]error
	calls     map[string]int
	now       func() time.Time
}

func New() *DB {
	return &DB{
		events:    make(map[string]*entity.Event),
		users:     make(map[string]*entity.User),
		groups:    make(map[string]*entity.Group),
		approvals: make(map[string]*entity.ApprovalRequest),
		staff:     make(map[string]*entity.SecurityStaff),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes every later call of the named method return err until
// cleared with a nil err.
func (db *DB) FailOn(method string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, method)
		return
	}
	db.failures[method] = err
}

// Calls reports how many times the named method was invoked.
func (db *DB) Calls(method string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[method]
}

// enter must be called with mu held.
func (db *DB) enter(method string) error {
	db.calls[method]++
	if err, ok := db.failures[method]; ok {
		return fmt.Errorf("memdb %s: %w", method, err)
	}
	return nil
}

func (db *DB) PutEvent(e entity.Event) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.events[e.Id] = cloneEvent(&e)
}

func (db *DB) PutUser(u entity.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.Id] = cloneUser(&u)
}

func (db *DB) PutGroup(g entity.Group) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.groups[g.Id] = cloneGroup(&g)
}

func (db *DB) PutApprovalRequest(r entity.ApprovalRequest) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := r
	db.approvals[r.Id] = &c
}

// Events

func (db *DB) GetEvent(_ context.Context, id string) (*entity.Event, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GetEvent"); err != nil {
		return nil, err
	}
	e, ok := db.events[id]
	if !ok {
		return nil, nil
	}
	return cloneEvent(e), nil
}

func (db *DB) AddAttendee(_ context.Context, eventId, userId string) error {
	return db.updateEvent("AddAttendee", eventId, func(e *entity.Event) {
		e.Attendees = addToSet(e.Attendees, userId)
	})
}

func (db *DB) AddEventGroup(_ context.Context, eventId, groupId string) error {
	return db.updateEvent("AddEventGroup", eventId, func(e *entity.Event) {
		e.PreApprovedGroups = addToSet(e.PreApprovedGroups, groupId)
	})
}

func (db *DB) RemoveEventGroup(_ context.Context, eventId, groupId string) error {
	return db.updateEvent("RemoveEventGroup", eventId, func(e *entity.Event) {
		e.PreApprovedGroups = pull(e.PreApprovedGroups, groupId)
	})
}

func (db *DB) AddEventUser(_ context.Context, eventId, userId string) error {
	return db.updateEvent("AddEventUser", eventId, func(e *entity.Event) {
		e.PreApprovedUsers = addToSet(e.PreApprovedUsers, userId)
	})
}

func (db *DB) RemoveEventUser(_ context.Context, eventId, userId string) error {
	return db.updateEvent("RemoveEventUser", eventId, func(e *entity.Event) {
		e.PreApprovedUsers = pull(e.PreApprovedUsers, userId)
	})
}

func (db *DB) updateEvent(method, id string, fn func(e *entity.Event)) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter(method); err != nil {
		return err
	}
	e, ok := db.events[id]
	if !ok {
		return fmt.Errorf("memdb %s %s: %w", method, id, entity.ErrNotFound)
	}
	fn(e)
	e.UpdatedAt = db.now()
	return nil
}

// Users

func (db *DB) GetUser(_ context.Context, id string) (*entity.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GetUser"); err != nil {
		return nil, err
	}
	u, ok := db.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (db *DB) SetUserGroups(_ context.Context, userId string, groups []string) error {
	return db.updateUser("SetUserGroups", userId, func(u *entity.User) {
		u.Groups = append([]string{}, groups...)
	})
}

func (db *DB) AddUserGroup(_ context.Context, userId, groupId string) error {
	return db.updateUser("AddUserGroup", userId, func(u *entity.User) {
		u.Groups = addToSet(u.Groups, groupId)
	})
}

func (db *DB) RemoveUserGroup(_ context.Context, userId, groupId string) error {
	return db.updateUser("RemoveUserGroup", userId, func(u *entity.User) {
		u.Groups = pull(u.Groups, groupId)
	})
}

func (db *DB) SetUserRole(_ context.Context, userId string, role entity.Role) error {
	return db.updateUser("SetUserRole", userId, func(u *entity.User) {
		u.Role = role
	})
}

func (db *DB) updateUser(method, id string, fn func(u *entity.User)) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter(method); err != nil {
		return err
	}
	u, ok := db.users[id]
	if !ok {
		return fmt.Errorf("memdb %s %s: %w", method, id, entity.ErrNotFound)
	}
	fn(u)
	u.UpdatedAt = db.now()
	return nil
}

// Groups

func (db *DB) GetGroup(_ context.Context, id string) (*entity.Group, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GetGroup"); err != nil {
		return nil, err
	}
	g, ok := db.groups[id]
	if !ok {
		return nil, nil
	}
	return cloneGroup(g), nil
}

func (db *DB) GroupIdsWithMember(_ context.Context, userId string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GroupIdsWithMember"); err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for id, g := range db.groups {
		if g.HasMember(userId) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (db *DB) AddGroupMember(_ context.Context, groupId, userId string) error {
	return db.updateGroup("AddGroupMember", groupId, func(g *entity.Group) {
		g.Members = addToSet(g.Members, userId)
	})
}

func (db *DB) RemoveGroupMember(_ context.Context, groupId, userId string) error {
	return db.updateGroup("RemoveGroupMember", groupId, func(g *entity.Group) {
		g.Members = pull(g.Members, userId)
	})
}

func (db *DB) AddGroupEvent(_ context.Context, groupId, eventId string) error {
	return db.updateGroup("AddGroupEvent", groupId, func(g *entity.Group) {
		g.PreApprovedEvents = addToSet(g.PreApprovedEvents, eventId)
	})
}

func (db *DB) RemoveGroupEvent(_ context.Context, groupId, eventId string) error {
	return db.updateGroup("RemoveGroupEvent", groupId, func(g *entity.Group) {
		g.PreApprovedEvents = pull(g.PreApprovedEvents, eventId)
	})
}

func (db *DB) updateGroup(method, id string, fn func(g *entity.Group)) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter(method); err != nil {
		return err
	}
	g, ok := db.groups[id]
	if !ok {
		return fmt.Errorf("memdb %s %s: %w", method, id, entity.ErrNotFound)
	}
	fn(g)
	return nil
}

func addToSet(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func pull(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}

func cloneEvent(e *entity.Event) *entity.Event {
	c := *e
	c.PreApprovedGroups = slices.Clone(e.PreApprovedGroups)
	c.PreApprovedUsers = slices.Clone(e.PreApprovedUsers)
	c.Attendees = slices.Clone(e.Attendees)
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Groups = slices.Clone(u.Groups)
	return &c
}

func cloneGroup(g *entity.Group) *entity.Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	c.PreApprovedEvents = slices.Clone(g.PreApprovedEvents)
	return &c
}
