package entity

import "time"

// ApprovalStatus moves pending -> approved | denied exactly once.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusDenied   ApprovalStatus = "denied"
)

func (s ApprovalStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusDenied
}

type ApprovalRequest struct {
	Id          string         `json:"id" bson:"_id"`
	EventId     string         `json:"eventId" bson:"event_id"`
	UserId      string         `json:"userId" bson:"user_id"`
	Status      ApprovalStatus `json:"status" bson:"status"`
	RequestedAt time.Time      `json:"requestedAt" bson:"requested_at"`
	ProcessedAt *time.Time     `json:"processedAt" bson:"processed_at"`
	ProcessedBy *string        `json:"processedBy" bson:"processed_by"`
}
