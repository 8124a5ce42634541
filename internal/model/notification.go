package model

import "time"

// Notification is an entry in a user's notification feed.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"` // e.g. "answer", "mention", "vote"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	RelatedID int64     `json:"relatedId"`
}

// CountUnread returns the number of entries with Read == false.
func CountUnread(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
