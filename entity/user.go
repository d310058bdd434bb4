package entity

import (
	"slices"
	"time"
)

// User is a registrant profile. Groups is a cached copy of the groups whose
// members contain this user; it is repaired on read and never used to decide
// eligibility.
type User struct {
	Id          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"displayName" bson:"display_name"`
	PhotoURL    string    `json:"photoURL" bson:"photo_url"`
	Groups      []string  `json:"groups" bson:"groups"`
	Role        Role      `json:"role" bson:"role"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

func (u *User) EffectiveRole() Role {
	if r, ok := ParseRole(string(u.Role)); ok {
		return r
	}
	return RoleUser
}

func (u *User) InGroup(groupId string) bool {
	return slices.Contains(u.Groups, groupId)
}

func (u *User) NameOrDefault() string {
	if u.DisplayName == "" {
		return "Unknown User"
	}
	return u.DisplayName
}
