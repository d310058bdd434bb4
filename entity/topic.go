// Package entity defines domain types shared across the application.

package entity

import "time"

// Notification topics published on state transitions.
// Downstream consumers (mailer, admin chats) subscribe by topic.
const (
	TopicApprovalRequested  = "approval.requested"
	TopicApprovalDecided    = "approval.decided"
	TopicApprovalCancelled  = "approval.cancelled"
	TopicRegistrationRecord = "registration.recorded"
	TopicCheckInRecorded    = "checkin.recorded"
)

var allTopics = []string{
	TopicApprovalRequested,
	TopicApprovalDecided,
	TopicApprovalCancelled,
	TopicRegistrationRecord,
	TopicCheckInRecorded,
}

func AllTopics() []string {
	result := make([]string, len(allTopics))
	copy(result, allTopics)
	return result
}

func IsValidTopic(topic string) bool {
	for _, t := range allTopics {
		if t == topic {
			return true
		}
	}
	return false
}

// Notice is the payload published for a topic.
type Notice struct {
	Topic     string    `json:"topic"`
	EventId   string    `json:"eventId,omitempty"`
	UserId    string    `json:"userId,omitempty"`
	ActorId   string    `json:"actorId,omitempty"`
	RequestId string    `json:"requestId,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
