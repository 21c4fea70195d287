package models

type PostStatus string
type NotificationStatus string
type ResponseType string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusPosted     PostStatus = "posted"
	PostStatusInProgress PostStatus = "in-progress"
	PostStatusCompleted  PostStatus = "completed"

	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusResponded NotificationStatus = "responded"

	ResponseTypeInterested    ResponseType = "interested"
	ResponseTypeNotInterested ResponseType = "not-interested"
	ResponseTypeCompleted     ResponseType = "completed"
)

// rank orders notification statuses; -1 means unknown.
func (s NotificationStatus) rank() int {
	switch s {
	case NotificationStatusSent:
		return 0
	case NotificationStatusRead:
		return 1
	case NotificationStatusResponded:
		return 2
	default:
		return -1
	}
}

func (s NotificationStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo allows staying put or moving forward in sent -> read -> responded.
func (s NotificationStatus) CanTransitionTo(next NotificationStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

func (r ResponseType) Valid() bool {
	switch r {
	case ResponseTypeInterested, ResponseTypeNotInterested, ResponseTypeCompleted:
		return true
	default:
		return false
	}
}

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPosted, PostStatusInProgress, PostStatusCompleted:
		return true
	default:
		return false
	}
}
