package entity

import "slices"

// Group.PreApprovedEvents mirrors Event.PreApprovedGroups; both sides are
// changed together by the pre-approval service.
type Group struct {
	Id                string   `json:"id" bson:"_id"`
	Name              string   `json:"name" bson:"name"`
	Description       string   `json:"description" bson:"description"`
	Members           []string `json:"members" bson:"members"`
	PreApprovedEvents []string `json:"preApprovedEvents" bson:"pre_approved_events"`
}

func (g *Group) HasMember(userId string) bool {
	return slices.Contains(g.Members, userId)
}
