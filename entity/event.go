package entity

import (
	"slices"
	"time"

	"admitgate/lib/set"
)

type Event struct {
	Id                string    `json:"id" bson:"_id"`
	Title             string    `json:"title" bson:"title"`
	Description       string    `json:"description" bson:"description"`
	Location          string    `json:"location" bson:"location"`
	Capacity          int       `json:"capacity" bson:"capacity"`
	Datetime          time.Time `json:"datetime" bson:"datetime"`
	RequiresApproval  bool      `json:"requiresApproval" bson:"requires_approval"`
	PreApprovedGroups []string  `json:"preApprovedGroups" bson:"pre_approved_groups"`
	PreApprovedUsers  []string  `json:"preApprovedUsers" bson:"pre_approved_users"`
	Attendees         []string  `json:"attendees" bson:"attendees"`
	CreatedAt         time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// HasAttendee is the only answer to "is this user registered".
func (e *Event) HasAttendee(userId string) bool {
	return slices.Contains(e.Attendees, userId)
}

func (e *Event) IsPreApprovedUser(userId string) bool {
	return slices.Contains(e.PreApprovedUsers, userId)
}

// MatchingGroups returns the given groups that pre-approve this event.
func (e *Event) MatchingGroups(groups []string) []string {
	return set.Intersect(groups, e.PreApprovedGroups)
}
