package model

// VoteType is the direction sent to the backend's vote endpoints.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is one of the two accepted vote types.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Delta is the counter adjustment a confirmed vote of this type applies.
func (v VoteType) Delta() int {
	switch v {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	default:
		return 0
	}
}

// Opposite returns the vote type that cancels v.
func (v VoteType) Opposite() VoteType {
	if v == VoteUp {
		return VoteDown
	}
	return VoteUp
}

// VoteDirection is the viewer's own vote on an entity. It is view-owned
// state, kept apart from the server-confirmed Votes counter.
type VoteDirection string

const (
	DirectionNone VoteDirection = ""
	DirectionUp   VoteDirection = "up"
	DirectionDown VoteDirection = "down"
)
