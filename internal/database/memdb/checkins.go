package memdb

import (
	"context"
	"slices"
	"time"

	"admitgate/entity"
)

func (db *DB) InsertCheckIn(_ context.Context, record *entity.CheckIn) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("InsertCheckIn"); err != nil {
		return err
	}
	c := *record
	db.checkIns = append(db.checkIns, &c)
	return nil
}

func (db *DB) CheckInsForEvent(_ context.Context, eventId string) ([]*entity.CheckIn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("CheckInsForEvent"); err != nil {
		return nil, err
	}
	var out []*entity.CheckIn
	for _, r := range db.checkIns {
		if r.EventId == eventId {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (db *DB) RecordScan(_ context.Context, staffId string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("RecordScan"); err != nil {
		return err
	}
	s, ok := db.staff[staffId]
	if !ok {
		s = &entity.SecurityStaff{Id: staffId, AssignedEvents: []string{}}
		db.staff[staffId] = s
	}
	s.ScanCount++
	s.LastActive = at
	s.UpdatedAt = at
	return nil
}

func (db *DB) GetSecurityStaff(_ context.Context, id string) (*entity.SecurityStaff, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GetSecurityStaff"); err != nil {
		return nil, err
	}
	s, ok := db.staff[id]
	if !ok {
		return nil, nil
	}
	c := *s
	c.AssignedEvents = slices.Clone(s.AssignedEvents)
	return &c, nil
}

func (db *DB) EnsureSecurityStaff(_ context.Context, user *entity.User, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("EnsureSecurityStaff"); err != nil {
		return err
	}
	s, ok := db.staff[user.Id]
	if !ok {
		s = &entity.SecurityStaff{Id: user.Id, AssignedEvents: []string{}}
		db.staff[user.Id] = s
	}
	s.Email = user.Email
	s.DisplayName = user.DisplayName
	s.UpdatedAt = at
	return nil
}
