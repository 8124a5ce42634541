package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

// QuestionGateway is the part of the remote gateway the question store uses.
type QuestionGateway interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
	GetQuestion(ctx context.Context, id int64) (*model.Question, error)
	CreateQuestion(ctx context.Context, in model.QuestionInput) (*model.Question, error)
	UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput) (*model.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	VoteQuestion(ctx context.Context, id int64, vote model.VoteType) error
	AcceptAnswer(ctx context.Context, questionID, answerID int64) error

	ListAnswers(ctx context.Context, questionID int64) ([]model.Answer, error)
	CreateAnswer(ctx context.Context, questionID int64, content string) (*model.Answer, error)
	UpdateAnswer(ctx context.Context, id int64, content string) (*model.Answer, error)
	DeleteAnswer(ctx context.Context, id int64) error
	VoteAnswer(ctx context.Context, id int64, vote model.VoteType) error
}

// QuestionStore is the in-memory mirror of server-owned questions and
// answers: the question list plus one current-detail view (a question and
// its answers).
//
// Read paths differ in staleness policy. FetchQuestions empties the list
// on failure; FetchQuestionByID keeps the previous detail view. Write paths
// always return the error and leave the cache as it was.
type QuestionStore struct {
	mu        sync.Mutex
	questions []model.Question
	current   *model.Question
	answers   []model.Answer
	lastErr   error
	pending   int

	remote QuestionGateway
	logger *slog.Logger
}

// NewQuestionStore creates an empty question store.
func NewQuestionStore(remote QuestionGateway, logger *slog.Logger) *QuestionStore {
	return &QuestionStore{
		questions: []model.Question{},
		answers:   []model.Answer{},
		remote:    remote,
		logger:    logger,
	}
}

// normalize keeps a classified error as-is and wraps anything else so the
// caller always gets a readable message.
func normalize(err error, fallback string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Unknown(fallback, err)
}

func (s *QuestionStore) begin() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

// end must be called with s.mu held.
func (s *QuestionStore) end() {
	s.pending--
}

// FetchQuestions replaces the list with the backend's. On failure the list
// is reset to empty and the error is recorded.
func (s *QuestionStore) FetchQuestions(ctx context.Context) error {
	s.begin()
	qs, err := s.remote.ListQuestions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.end()

	if err != nil {
		err = normalize(err, "Failed to fetch questions")
		s.questions = []model.Question{}
		s.lastErr = err
		s.logger.Warn("fetching questions failed", slog.String("error", err.Error()))
		return fmt.Errorf("fetching questions: %w", err)
	}

	s.questions = cloneQuestions(qs)
	s.lastErr = nil
	return nil
}

// FetchQuestionByID loads one question and its answers as the current
// detail view. Both requests run concurrently and the view is replaced only
// when both succeed; otherwise the previous view stays and the error is
// recorded.
func (s *QuestionStore) FetchQuestionByID(ctx context.Context, id int64) error {
	s.begin()

	var (
		q       *model.Question
		answers []model.Answer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		q, err = s.remote.GetQuestion(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		answers, err = s.remote.ListAnswers(gctx, id)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.end()

	if err != nil {
		err = normalize(err, "Failed to fetch question")
		s.lastErr = err
		s.logger.Warn("fetching question failed",
			slog.Int64("questionID", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fetching question %d: %w", id, err)
	}

	cur := q.Clone()
	s.current = &cur
	s.answers = append([]model.Answer{}, answers...)
	s.lastErr = nil
	return nil
}

// CreateQuestion posts a question and prepends the created entity to the
// list. Input is not validated here; see package form.
func (s *QuestionStore) CreateQuestion(ctx context.Context, in model.QuestionInput) (*model.Question, error) {
	q, err := s.remote.CreateQuestion(ctx, in)
	if err != nil {
		err = normalize(err, "Failed to create question")
		s.record(err)
		return nil, err
	}

	s.mu.Lock()
	s.questions = append([]model.Question{q.Clone()}, s.questions...)
	s.lastErr = nil
	s.mu.Unlock()

	out := q.Clone()
	return &out, nil
}

// UpdateQuestion edits a question and replaces it in the list and the
// detail view.
func (s *QuestionStore) UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput) (*model.Question, error) {
	q, err := s.remote.UpdateQuestion(ctx, id, in)
	if err != nil {
		return nil, normalize(err, "Failed to update question")
	}

	s.mu.Lock()
	for i := range s.questions {
		if s.questions[i].ID == id {
			s.questions[i] = q.Clone()
		}
	}
	if s.current != nil && s.current.ID == id {
		cur := q.Clone()
		s.current = &cur
	}
	s.mu.Unlock()

	out := q.Clone()
	return &out, nil
}

// DeleteQuestion removes a question from the list, and clears the detail
// view when it was showing that question.
func (s *QuestionStore) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.remote.DeleteQuestion(ctx, id); err != nil {
		return normalize(err, "Failed to delete question")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.questions[:0:0]
	for _, q := range s.questions {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	s.questions = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.answers = []model.Answer{}
	}
	return nil
}

// CreateAnswer posts an answer. It is appended to the cached answers only
// when the detail view is showing the same question.
func (s *QuestionStore) CreateAnswer(ctx context.Context, in model.AnswerInput) (*model.Answer, error) {
	a, err := s.remote.CreateAnswer(ctx, in.QuestionID, in.Content)
	if err != nil {
		err = normalize(err, "Failed to create answer")
		s.record(err)
		return nil, err
	}

	if a.QuestionID == 0 {
		a.QuestionID = in.QuestionID
	}
	if a.Author.ID == 0 {
		a.Author = in.Author
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == a.QuestionID {
		s.answers = append(s.answers, *a)
	}
	s.lastErr = nil
	s.mu.Unlock()

	out := *a
	return &out, nil
}

// UpdateAnswer edits an answer's content and replaces the cached copy.
func (s *QuestionStore) UpdateAnswer(ctx context.Context, id int64, content string) (*model.Answer, error) {
	a, err := s.remote.UpdateAnswer(ctx, id, content)
	if err != nil {
		return nil, normalize(err, "Failed to update answer")
	}

	s.mu.Lock()
	for i := range s.answers {
		if s.answers[i].ID == id {
			// only the content is editable; keep the cached counters
			merged := s.answers[i]
			merged.Content = a.Content
			s.answers[i] = merged
			a = &merged
		}
	}
	s.mu.Unlock()

	out := *a
	return &out, nil
}

// DeleteAnswer removes an answer from the cached collection.
func (s *QuestionStore) DeleteAnswer(ctx context.Context, id int64) error {
	if err := s.remote.DeleteAnswer(ctx, id); err != nil {
		return normalize(err, "Failed to delete answer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.answers[:0:0]
	for _, a := range s.answers {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.answers = kept
	return nil
}

// VoteQuestion submits a vote and, once the backend confirms it, moves the
// cached counter by exactly one in the list and the detail view. A failed
// call leaves the counter untouched.
//
// The caller owns the "my vote" direction (see package vote); toggling off
// a vote is submitted as the opposite type.
func (s *QuestionStore) VoteQuestion(ctx context.Context, id int64, vote model.VoteType) error {
	if !vote.Valid() {
		return apperror.ValidationFailed("voteType", fmt.Sprintf("invalid vote type %q", vote))
	}
	if err := s.remote.VoteQuestion(ctx, id, vote); err != nil {
		return normalize(err, "Failed to vote")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.questions {
		if s.questions[i].ID == id {
			s.questions[i].Votes += vote.Delta()
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current.Votes += vote.Delta()
	}
	return nil
}

// VoteAnswer is VoteQuestion for answers.
func (s *QuestionStore) VoteAnswer(ctx context.Context, id int64, vote model.VoteType) error {
	if !vote.Valid() {
		return apperror.ValidationFailed("voteType", fmt.Sprintf("invalid vote type %q", vote))
	}
	if err := s.remote.VoteAnswer(ctx, id, vote); err != nil {
		return normalize(err, "Failed to vote")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.answers {
		if s.answers[i].ID == id {
			s.answers[i].Votes += vote.Delta()
		}
	}
	return nil
}

// AcceptAnswer marks answer id as the accepted one for its question. The
// answer must be in the cached collection, since its question is needed for
// the request. The collection belongs to the current question, so an answer
// listed without its questionId is taken to be on that one. On success every
// cached answer of that question is updated in one critical section, so
// readers see exactly one accepted answer.
func (s *QuestionStore) AcceptAnswer(ctx context.Context, id int64) error {
	s.mu.Lock()
	var questionID int64
	for _, a := range s.answers {
		if a.ID == id {
			questionID = s.owner(a)
			break
		}
	}
	s.mu.Unlock()

	if questionID == 0 {
		return apperror.NotFound("answer", fmt.Sprint(id))
	}

	if err := s.remote.AcceptAnswer(ctx, questionID, id); err != nil {
		err = normalize(err, "Failed to accept answer")
		s.record(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.answers {
		if s.owner(s.answers[i]) == questionID {
			s.answers[i].IsAccepted = s.answers[i].ID == id
		}
	}
	return nil
}

// owner returns the question a cached answer belongs to. Must be called
// with s.mu held.
func (s *QuestionStore) owner(a model.Answer) int64 {
	if a.QuestionID == 0 && s.current != nil {
		return s.current.ID
	}
	return a.QuestionID
}

func (s *QuestionStore) record(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Questions returns a copy of the cached list.
func (s *QuestionStore) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneQuestions(s.questions)
}

// CurrentQuestion returns the detail view's question, if one is loaded.
func (s *QuestionStore) CurrentQuestion() (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.Question{}, false
	}
	return s.current.Clone(), true
}

// Answers returns a copy of the detail view's answers.
func (s *QuestionStore) Answers() []model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Answer{}, s.answers...)
}

// Err returns the last recorded error, or nil after a successful load.
func (s *QuestionStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Loading reports whether a fetch is in flight.
func (s *QuestionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Reset drops all cached state.
func (s *QuestionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = []model.Question{}
	s.current = nil
	s.answers = []model.Answer{}
	s.lastErr = nil
}

func cloneQuestions(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
