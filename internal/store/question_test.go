package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

func newTestQuestions(t *testing.T) (*QuestionStore, *fakeForum) {
	t.Helper()
	remote := newFakeForum()
	return NewQuestionStore(remote, testLogger()), remote
}

func seedQuestion(f *fakeForum) {
	f.questions = []model.Question{
		{ID: 42, Title: "How do goroutines work?", Votes: 3, Tags: []string{"go"}},
		{ID: 43, Title: "What is a channel?", Votes: 0, Tags: []string{"go"}},
	}
	f.answers = []model.Answer{
		{ID: 1, QuestionID: 42, Content: "first", IsAccepted: true},
		{ID: 2, QuestionID: 42, Content: "second"},
		{ID: 3, QuestionID: 42, Content: "third"},
	}
}

func countAccepted(answers []model.Answer, questionID int64) int {
	n := 0
	for _, a := range answers {
		if a.QuestionID == questionID && a.IsAccepted {
			n++
		}
	}
	return n
}

// An empty cache gets exactly the created question at the head.
func TestCreateQuestion_PrependsToEmptyCache(t *testing.T) {
	s, _ := newTestQuestions(t)

	q, err := s.CreateQuestion(context.Background(), model.QuestionInput{
		Title:       "How to center a div in CSS?",
		Description: "I have tried everything and nothing works at all.",
		Tags:        []string{"css"},
	})
	require.NoError(t, err)

	qs := s.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, *q, qs[0])
	assert.Equal(t, "How to center a div in CSS?", qs[0].Title)
}

func TestCreateQuestion_PrependsBeforeExisting(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))

	q, err := s.CreateQuestion(ctx, model.QuestionInput{Title: "Newest question here", Tags: []string{"go"}})
	require.NoError(t, err)

	qs := s.Questions()
	require.Len(t, qs, 3)
	assert.Equal(t, q.ID, qs[0].ID)
}

func TestCreateQuestion_FailureLeavesCache(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))

	remote.createErr = apperror.FromStatus(400, "Title is required")
	_, err := s.CreateQuestion(ctx, model.QuestionInput{})
	require.Error(t, err)
	assert.Equal(t, "Title is required", apperror.MessageOf(err, ""))
	assert.Len(t, s.Questions(), 2)

	remote.createErr = errors.New("boom")
	_, err = s.CreateQuestion(ctx, model.QuestionInput{})
	assert.Equal(t, "Failed to create question", apperror.MessageOf(err, ""))
}

func TestFetchQuestions_FailEmpty(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))
	require.Len(t, s.Questions(), 2)

	remote.setErr(&remote.listErr, apperror.Network(errors.New("offline")))
	err := s.FetchQuestions(ctx)
	require.Error(t, err)

	assert.Empty(t, s.Questions())
	assert.NotNil(t, s.Questions(), "an emptied list is still a list")
	assert.Equal(t, apperror.KindNetwork, apperror.KindOf(s.Err()))
	assert.False(t, s.Loading())
}

func TestFetchQuestionByID_FailStale(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	before, ok := s.CurrentQuestion()
	require.True(t, ok)
	beforeAnswers := s.Answers()
	require.Len(t, beforeAnswers, 3)

	tests := []struct {
		name   string
		target *error
	}{
		{"question request fails", &remote.getErr},
		{"answers request fails", &remote.answersErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote.setErr(tt.target, apperror.Backend(500, ""))
			defer remote.setErr(tt.target, nil)

			err := s.FetchQuestionByID(ctx, 43)
			require.Error(t, err)

			after, ok := s.CurrentQuestion()
			require.True(t, ok)
			assert.Equal(t, before, after)
			assert.Equal(t, beforeAnswers, s.Answers())
			assert.Error(t, s.Err())
		})
	}

	// a later success clears the recorded error
	require.NoError(t, s.FetchQuestionByID(ctx, 43))
	assert.NoError(t, s.Err())
	cur, _ := s.CurrentQuestion()
	assert.Equal(t, int64(43), cur.ID)
	assert.Empty(t, s.Answers())
}

func TestVoteQuestion_AdjustsAfterConfirm(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	require.NoError(t, s.VoteQuestion(ctx, 42, model.VoteUp))
	assert.Equal(t, 4, s.Questions()[0].Votes)
	cur, _ := s.CurrentQuestion()
	assert.Equal(t, 4, cur.Votes)

	// toggling off is the opposite submission and nets to zero
	require.NoError(t, s.VoteQuestion(ctx, 42, model.VoteDown))
	assert.Equal(t, 3, s.Questions()[0].Votes)
}

func TestVoteQuestion_FailureLeavesCounter(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	remote.voteErr = apperror.Network(errors.New("offline"))
	err := s.VoteQuestion(ctx, 42, model.VoteUp)
	require.Error(t, err)

	assert.Equal(t, 3, s.Questions()[0].Votes)
	cur, _ := s.CurrentQuestion()
	assert.Equal(t, 3, cur.Votes)
}

func TestVote_InvalidTypeNeverCallsBackend(t *testing.T) {
	s, remote := newTestQuestions(t)
	ctx := context.Background()

	err := s.VoteQuestion(ctx, 42, model.VoteType("sideways"))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	err = s.VoteAnswer(ctx, 1, "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Zero(t, remote.voteCalls)
}

func TestVoteQuestion_ConcurrentVotesCommute(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(up bool) {
			defer wg.Done()
			v := model.VoteDown
			if up {
				v = model.VoteUp
			}
			assert.NoError(t, s.VoteQuestion(ctx, 42, v))
		}(i%4 != 0)
	}
	wg.Wait()

	// 15 up, 5 down
	assert.Equal(t, 3+15-5, s.Questions()[0].Votes)
}

func TestVoteAnswer(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	require.NoError(t, s.VoteAnswer(ctx, 2, model.VoteDown))
	assert.Equal(t, -1, s.Answers()[1].Votes)

	remote.voteErr = errors.New("boom")
	require.Error(t, s.VoteAnswer(ctx, 2, model.VoteDown))
	assert.Equal(t, -1, s.Answers()[1].Votes)
}

// Two answers, one accepted; accepting the other moves the flag.
func TestAcceptAnswer_MovesFlag(t *testing.T) {
	s, remote := newTestQuestions(t)
	remote.questions = []model.Question{{ID: 42, Title: "Question forty-two"}}
	remote.answers = []model.Answer{
		{ID: 1, QuestionID: 42, IsAccepted: true},
		{ID: 2, QuestionID: 42},
	}
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	require.NoError(t, s.AcceptAnswer(ctx, 2))

	answers := s.Answers()
	assert.False(t, answers[0].IsAccepted)
	assert.True(t, answers[1].IsAccepted)
	assert.Equal(t, 1, countAccepted(answers, 42))
}

func TestAcceptAnswer_ListedWithoutQuestionID(t *testing.T) {
	s, remote := newTestQuestions(t)
	remote.questions = []model.Question{{ID: 42, Title: "Question forty-two"}}
	remote.answers = []model.Answer{
		{ID: 1, QuestionID: 42, IsAccepted: true},
		{ID: 2, QuestionID: 42},
	}
	remote.omitQuestionID = true
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	require.NoError(t, s.AcceptAnswer(ctx, 2))
	assert.Equal(t, 1, remote.acceptCalls)
	assert.Equal(t, int64(42), remote.acceptedOn)

	answers := s.Answers()
	assert.False(t, answers[0].IsAccepted)
	assert.True(t, answers[1].IsAccepted)
}

func TestAcceptAnswer_AtMostOneUnderConcurrency(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	done := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
				assert.Equal(t, 1, countAccepted(s.Answers(), 42))
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, s.AcceptAnswer(ctx, id))
		}(int64(i%3) + 1)
	}
	wg.Wait()
	close(done)
	readers.Wait()

	assert.Equal(t, 1, countAccepted(s.Answers(), 42))
}

func TestAcceptAnswer_Failures(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	err := s.AcceptAnswer(ctx, 999)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Zero(t, remote.acceptCalls, "unknown answers are rejected locally")

	remote.acceptErr = apperror.FromStatus(403, "Only the author can accept")
	err = s.AcceptAnswer(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, "Only the author can accept", apperror.MessageOf(err, ""))
	assert.True(t, s.Answers()[0].IsAccepted, "cache untouched on failure")
}

func TestCreateAnswer(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	a, err := s.CreateAnswer(ctx, model.AnswerInput{QuestionID: 42, Content: "<p>use channels</p>", Author: john})
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.QuestionID)
	assert.Equal(t, john, a.Author)

	answers := s.Answers()
	require.Len(t, answers, 4)
	assert.Equal(t, a.ID, answers[3].ID)

	// an answer to a question that is not on screen is not cached
	_, err = s.CreateAnswer(ctx, model.AnswerInput{QuestionID: 43, Content: "x"})
	require.NoError(t, err)
	assert.Len(t, s.Answers(), 4)

	remote.createErr = errors.New("boom")
	_, err = s.CreateAnswer(ctx, model.AnswerInput{QuestionID: 42, Content: "y"})
	assert.Equal(t, "Failed to create answer", apperror.MessageOf(err, ""))
	assert.Len(t, s.Answers(), 4)
}

func TestUpdateAndDelete(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	_, err := s.UpdateQuestion(ctx, 42, model.QuestionInput{Title: "How do goroutines really work?", Tags: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, "How do goroutines really work?", s.Questions()[0].Title)
	cur, _ := s.CurrentQuestion()
	assert.Equal(t, "How do goroutines really work?", cur.Title)

	_, err = s.UpdateAnswer(ctx, 2, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", s.Answers()[1].Content)
	assert.Equal(t, int64(42), s.Answers()[1].QuestionID)

	require.NoError(t, s.DeleteAnswer(ctx, 3))
	assert.Len(t, s.Answers(), 2)

	require.NoError(t, s.DeleteQuestion(ctx, 42))
	assert.Len(t, s.Questions(), 1)
	_, ok := s.CurrentQuestion()
	assert.False(t, ok)
	assert.Empty(t, s.Answers())

	_, err = s.UpdateQuestion(ctx, 42, model.QuestionInput{})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAccessorsReturnCopies(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))

	qs := s.Questions()
	qs[0].Votes = 1000
	qs[0].Tags[0] = "mutated"

	fresh := s.Questions()
	assert.Equal(t, 3, fresh[0].Votes)
	assert.Equal(t, "go", fresh[0].Tags[0])
}

func TestReset(t *testing.T) {
	s, remote := newTestQuestions(t)
	seedQuestion(remote)
	ctx := context.Background()
	require.NoError(t, s.FetchQuestions(ctx))
	require.NoError(t, s.FetchQuestionByID(ctx, 42))

	s.Reset()
	assert.Empty(t, s.Questions())
	assert.Empty(t, s.Answers())
	_, ok := s.CurrentQuestion()
	assert.False(t, ok)
}
