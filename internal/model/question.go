package model

import "time"

// Question is a forum question as cached by the question store.
//
// Votes is only ever adjusted locally by ±1 per confirmed vote. Tags must
// hold 1–10 entries at creation, which the form layer enforces.
type Question struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"` // rich text (HTML)
	Tags        []string  `json:"tags"`
	Votes       int       `json:"votes"`
	Views       int       `json:"views"`
	AnswerCount int       `json:"answerCount"`
	Author      User      `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers can never alias the cache's slices.
func (q Question) Clone() Question {
	if q.Tags != nil {
		q.Tags = append([]string(nil), q.Tags...)
	}
	return q
}

// Answer belongs to exactly one question via QuestionID.
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	Content    string    `json:"content"` // rich text (HTML)
	Votes      int       `json:"votes"`
	IsAccepted bool      `json:"isAccepted"`
	Author     User      `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuestionInput is the payload for creating or editing a question.
type QuestionInput struct {
	Title       string   `json:"title"       validate:"required,min=10,max=200"`
	Description string   `json:"description" validate:"required,min=20,max=5000"`
	Tags        []string `json:"tags"        validate:"min=1,max=10,dive,required,max=35"`
}

// AnswerInput is the payload for posting an answer. Author is used to fill in
// the cached answer when the backend response omits it.
type AnswerInput struct {
	QuestionID int64  `json:"-"       validate:"required,gt=0"`
	Content    string `json:"content" validate:"required"`
	Author     User   `json:"-"`
}
