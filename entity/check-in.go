package entity

import "time"

// CheckIn is one accepted scan. The log is append-only and may hold several
// records for the same attendee when they re-enter.
type CheckIn struct {
	Id          string    `json:"id" bson:"_id"`
	EventId     string    `json:"eventId" bson:"event_id"`
	UserId      string    `json:"userId" bson:"user_id"`
	SecurityId  string    `json:"securityId" bson:"security_id"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	DisplayName string    `json:"displayName" bson:"display_name"`
	PhotoURL    string    `json:"photoURL" bson:"photo_url"`
}

// SecurityStaff is the activity profile of a checkpoint operator.
type SecurityStaff struct {
	Id             string    `json:"id" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	DisplayName    string    `json:"displayName" bson:"display_name"`
	AssignedEvents []string  `json:"assignedEvents" bson:"assigned_events"`
	ScanCount      int64     `json:"scanCount" bson:"scan_count"`
	LastActive     time.Time `json:"lastActive,omitempty" bson:"last_active,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}
