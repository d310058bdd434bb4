package memdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"admitgate/entity"
)

func (db *DB) GetApprovalRequest(_ context.Context, id string) (*entity.ApprovalRequest, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("GetApprovalRequest"); err != nil {
		return nil, err
	}
	r, ok := db.approvals[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (db *DB) ApprovalRequestsFor(_ context.Context, eventId, userId string) ([]*entity.ApprovalRequest, error) {
	return db.listApprovals("ApprovalRequestsFor", true, func(r *entity.ApprovalRequest) bool {
		return r.EventId == eventId && r.UserId == userId
	})
}

func (db *DB) HasApprovedRequest(ctx context.Context, eventId, userId string) (bool, error) {
	list, err := db.listApprovals("HasApprovedRequest", false, func(r *entity.ApprovalRequest) bool {
		return r.EventId == eventId && r.UserId == userId && r.Status == entity.StatusApproved
	})
	return len(list) > 0, err
}

// InsertApprovalRequest enforces the same one-pending-per-pair rule as the
// partial unique index in mongo.
func (db *DB) InsertApprovalRequest(_ context.Context, req *entity.ApprovalRequest) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("InsertApprovalRequest"); err != nil {
		return err
	}
	if _, ok := db.approvals[req.Id]; ok {
		return fmt.Errorf("memdb insert %s: %w", req.Id, entity.ErrDuplicate)
	}
	if req.Status == entity.StatusPending {
		for _, r := range db.approvals {
			if r.EventId == req.EventId && r.UserId == req.UserId && r.Status == entity.StatusPending {
				return fmt.Errorf("memdb insert pending %s/%s: %w", req.EventId, req.UserId, entity.ErrDuplicate)
			}
		}
	}
	c := *req
	db.approvals[req.Id] = &c
	return nil
}

func (db *DB) ResolveApprovalRequest(_ context.Context, id string, status entity.ApprovalStatus, reviewerId string, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("ResolveApprovalRequest"); err != nil {
		return false, err
	}
	r, ok := db.approvals[id]
	if !ok || r.Status != entity.StatusPending {
		return false, nil
	}
	r.Status = status
	r.ProcessedAt = &at
	r.ProcessedBy = &reviewerId
	return true, nil
}

func (db *DB) DeletePendingApprovalRequest(_ context.Context, id, userId string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter("DeletePendingApprovalRequest"); err != nil {
		return false, err
	}
	r, ok := db.approvals[id]
	if !ok || r.UserId != userId || r.Status != entity.StatusPending {
		return false, nil
	}
	delete(db.approvals, id)
	return true, nil
}

func (db *DB) PendingApprovalRequests(_ context.Context) ([]*entity.ApprovalRequest, error) {
	return db.listApprovals("PendingApprovalRequests", false, func(r *entity.ApprovalRequest) bool {
		return r.Status == entity.StatusPending
	})
}

func (db *DB) UserApprovalRequests(_ context.Context, userId string) ([]*entity.ApprovalRequest, error) {
	return db.listApprovals("UserApprovalRequests", true, func(r *entity.ApprovalRequest) bool {
		return r.UserId == userId
	})
}

func (db *DB) listApprovals(method string, newestFirst bool, match func(r *entity.ApprovalRequest) bool) ([]*entity.ApprovalRequest, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.enter(method); err != nil {
		return nil, err
	}
	var out []*entity.ApprovalRequest
	for _, r := range db.approvals {
		if match(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}
