package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/form"
	"github.com/sakif/qaforum/internal/model"
)

// ForumService handles questions, answers, votes and notifications.
//
// OWNERSHIP RULES:
//   - only the author may edit or delete a question or an answer
//   - only the question's author may accept an answer to it
//   - users read and mark only their own notifications
//
// Votes are not deduplicated per user: every vote moves the counter by one.
// The client is responsible for cancelling its own earlier vote.
type ForumService struct {
	data   *Memory
	logger *slog.Logger
}

// NewForumService creates a ForumService over the given tables.
func NewForumService(data *Memory, logger *slog.Logger) *ForumService {
	return &ForumService{data: data, logger: logger}
}

func questionNotFound(id int64) error {
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "Question not found", Field: fmt.Sprint(id)}
}

func answerNotFound(id int64) error {
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "Answer not found", Field: fmt.Sprint(id)}
}

// =========================================================================
// QUESTIONS
// =========================================================================

// ListQuestions returns every question, newest first.
func (s *ForumService) ListQuestions(ctx context.Context) []model.Question {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	return s.data.sortedQuestions()
}

// GetQuestion returns one question and counts the view.
func (s *ForumService) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[id]
	if !ok {
		return nil, questionNotFound(id)
	}
	q.Views++
	out := q.Clone()
	return &out, nil
}

// CreateQuestion validates and stores a question by userID.
func (s *ForumService) CreateQuestion(ctx context.Context, userID int64, in model.QuestionInput) (*model.Question, error) {
	in, err := form.Question(in)
	if err != nil {
		return nil, err
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	author, ok := s.data.accounts[userID]
	if !ok {
		return nil, apperror.Unauthorized("Unknown user")
	}
	q := s.data.insertQuestion(model.Question{
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Author:      author.user,
	})

	s.logger.Info("question created", slog.Int64("questionID", q.ID), slog.Int64("userID", userID))
	return &q, nil
}

// UpdateQuestion replaces title, description and tags. Author only.
func (s *ForumService) UpdateQuestion(ctx context.Context, userID, id int64, in model.QuestionInput) (*model.Question, error) {
	in, err := form.Question(in)
	if err != nil {
		return nil, err
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[id]
	if !ok {
		return nil, questionNotFound(id)
	}
	if q.Author.ID != userID {
		return nil, apperror.Forbidden("You can only edit your own questions")
	}
	q.Title = in.Title
	q.Description = in.Description
	q.Tags = in.Tags

	out := q.Clone()
	return &out, nil
}

// DeleteQuestion removes a question and its answers. Author only.
func (s *ForumService) DeleteQuestion(ctx context.Context, userID, id int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[id]
	if !ok {
		return questionNotFound(id)
	}
	if q.Author.ID != userID {
		return apperror.Forbidden("You can only delete your own questions")
	}

	delete(s.data.questions, id)
	for aid, a := range s.data.answers {
		if a.QuestionID == id {
			delete(s.data.answers, aid)
		}
	}

	s.logger.Info("question deleted", slog.Int64("questionID", id))
	return nil
}

// VoteQuestion moves a question's counter by one. Voting on your own
// question is allowed; the client decides whether to offer it.
func (s *ForumService) VoteQuestion(ctx context.Context, userID, id int64, vote model.VoteType) error {
	if !vote.Valid() {
		return apperror.ValidationFailed("voteType", "voteType must be \"up\" or \"down\"")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[id]
	if !ok {
		return questionNotFound(id)
	}
	q.Votes += vote.Delta()

	if vote == model.VoteUp && q.Author.ID != userID {
		s.data.notify(model.Notification{
			UserID:    q.Author.ID,
			Type:      "vote",
			Title:     "Your question received an upvote",
			Message:   fmt.Sprintf("Someone upvoted %q", q.Title),
			RelatedID: q.ID,
		})
	}
	return nil
}

// AcceptAnswer marks answerID accepted and clears the flag on the
// question's other answers. Only the question's author may accept.
func (s *ForumService) AcceptAnswer(ctx context.Context, userID, questionID, answerID int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[questionID]
	if !ok {
		return questionNotFound(questionID)
	}
	a, ok := s.data.answers[answerID]
	if !ok || a.QuestionID != questionID {
		return answerNotFound(answerID)
	}
	if q.Author.ID != userID {
		return apperror.Forbidden("Only the question author can accept an answer")
	}

	for _, other := range s.data.answers {
		if other.QuestionID == questionID {
			other.IsAccepted = other.ID == answerID
		}
	}

	if a.Author.ID != userID {
		s.data.notify(model.Notification{
			UserID:    a.Author.ID,
			Type:      "accept",
			Title:     "Your answer was accepted",
			Message:   fmt.Sprintf("%s accepted your answer on %q", q.Author.Username, q.Title),
			RelatedID: q.ID,
		})
	}
	return nil
}

// =========================================================================
// ANSWERS
// =========================================================================

// ListAnswers returns a question's answers in posting order.
func (s *ForumService) ListAnswers(ctx context.Context, questionID int64) ([]model.Answer, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	if _, ok := s.data.questions[questionID]; !ok {
		return nil, questionNotFound(questionID)
	}
	return s.data.answersOf(questionID), nil
}

// CreateAnswer stores an answer and notifies the question's author.
func (s *ForumService) CreateAnswer(ctx context.Context, userID, questionID int64, content string) (*model.Answer, error) {
	in, err := form.Answer(model.AnswerInput{QuestionID: questionID, Content: content})
	if err != nil {
		return nil, err
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	q, ok := s.data.questions[questionID]
	if !ok {
		return nil, questionNotFound(questionID)
	}
	author, ok := s.data.accounts[userID]
	if !ok {
		return nil, apperror.Unauthorized("Unknown user")
	}

	a := s.data.insertAnswer(model.Answer{
		QuestionID: questionID,
		Content:    in.Content,
		Author:     author.user,
	})

	if q.Author.ID != userID {
		s.data.notify(model.Notification{
			UserID:    q.Author.ID,
			Type:      "answer",
			Title:     "New answer on your question",
			Message:   fmt.Sprintf("%s answered your question %q", author.user.Username, q.Title),
			RelatedID: q.ID,
		})
	}

	s.logger.Info("answer created", slog.Int64("answerID", a.ID), slog.Int64("questionID", questionID))
	return &a, nil
}

// UpdateAnswer replaces an answer's content. Author only.
func (s *ForumService) UpdateAnswer(ctx context.Context, userID, id int64, content string) (*model.Answer, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	a, ok := s.data.answers[id]
	if !ok {
		return nil, answerNotFound(id)
	}
	in, err := form.Answer(model.AnswerInput{QuestionID: a.QuestionID, Content: content})
	if err != nil {
		return nil, err
	}
	if a.Author.ID != userID {
		return nil, apperror.Forbidden("You can only edit your own answers")
	}
	a.Content = in.Content

	out := *a
	return &out, nil
}

// DeleteAnswer removes an answer. Author only.
func (s *ForumService) DeleteAnswer(ctx context.Context, userID, id int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	a, ok := s.data.answers[id]
	if !ok {
		return answerNotFound(id)
	}
	if a.Author.ID != userID {
		return apperror.Forbidden("You can only delete your own answers")
	}

	delete(s.data.answers, id)
	if q, ok := s.data.questions[a.QuestionID]; ok && q.AnswerCount > 0 {
		q.AnswerCount--
	}
	return nil
}

// VoteAnswer moves an answer's counter by one.
func (s *ForumService) VoteAnswer(ctx context.Context, userID, id int64, vote model.VoteType) error {
	if !vote.Valid() {
		return apperror.ValidationFailed("voteType", "voteType must be \"up\" or \"down\"")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	a, ok := s.data.answers[id]
	if !ok {
		return answerNotFound(id)
	}
	a.Votes += vote.Delta()

	if vote == model.VoteUp && a.Author.ID != userID {
		s.data.notify(model.Notification{
			UserID:    a.Author.ID,
			Type:      "vote",
			Title:     "Your answer received an upvote",
			Message:   "Someone upvoted your answer",
			RelatedID: a.QuestionID,
		})
	}
	return nil
}

// =========================================================================
// NOTIFICATIONS
// =========================================================================

// Notifications returns owner's feed, newest first. Callers may only read
// their own.
func (s *ForumService) Notifications(ctx context.Context, userID, owner int64) ([]model.Notification, error) {
	if userID != owner {
		return nil, apperror.Forbidden("You can only read your own notifications")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	return s.data.notificationsOf(owner), nil
}

// MarkNotificationRead flips one notification's read flag.
func (s *ForumService) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	n, ok := s.data.notifications[id]
	if !ok || n.UserID != userID {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "Notification not found"}
	}
	n.Read = true
	return nil
}

// MarkAllNotificationsRead flips every notification of owner.
func (s *ForumService) MarkAllNotificationsRead(ctx context.Context, userID, owner int64) error {
	if userID != owner {
		return apperror.Forbidden("You can only update your own notifications")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for _, n := range s.data.notifications {
		if n.UserID == owner {
			n.Read = true
		}
	}
	return nil
}

// UnreadCount counts owner's unread notifications.
func (s *ForumService) UnreadCount(ctx context.Context, userID, owner int64) (int, error) {
	ns, err := s.Notifications(ctx, userID, owner)
	if err != nil {
		return 0, err
	}
	return model.CountUnread(ns), nil
}
