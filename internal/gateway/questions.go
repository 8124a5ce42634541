package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sakif/qaforum/internal/model"
)

type questionData struct {
	Question model.Question `json:"question"`
}

// ListQuestions returns every question. A missing list decodes as empty.
// GET /questions → {questions}
func (c *Client) ListQuestions(ctx context.Context) ([]model.Question, error) {
	var out struct {
		Questions []model.Question `json:"questions"`
	}
	if err := c.do(ctx, "questions.list", http.MethodGet, "/questions", nil, &out); err != nil {
		return nil, err
	}
	if out.Questions == nil {
		return []model.Question{}, nil
	}
	return out.Questions, nil
}

// GetQuestion fetches one question.
// GET /questions/:id → {question}
func (c *Client) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	var out questionData
	if err := c.do(ctx, "questions.get", http.MethodGet, fmt.Sprintf("/questions/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

// CreateQuestion posts a new question.
// POST /questions → {question}
func (c *Client) CreateQuestion(ctx context.Context, in model.QuestionInput) (*model.Question, error) {
	var out questionData
	if err := c.do(ctx, "questions.create", http.MethodPost, "/questions", in, &out); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

// UpdateQuestion edits a question.
// PUT /questions/:id → {question}
func (c *Client) UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput) (*model.Question, error) {
	var out questionData
	if err := c.do(ctx, "questions.update", http.MethodPut, fmt.Sprintf("/questions/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

// DeleteQuestion removes a question.
// DELETE /questions/:id → status only
func (c *Client) DeleteQuestion(ctx context.Context, id int64) error {
	return c.do(ctx, "questions.delete", http.MethodDelete, fmt.Sprintf("/questions/%d", id), nil, nil)
}

// VoteQuestion records an up or down vote.
// POST /questions/:id/vote {voteType} → status only
func (c *Client) VoteQuestion(ctx context.Context, id int64, vote model.VoteType) error {
	return c.do(ctx, "questions.vote", http.MethodPost, fmt.Sprintf("/questions/%d/vote", id),
		voteBody{VoteType: vote}, nil)
}

// AcceptAnswer marks answerID as the accepted answer of questionID.
// PUT /questions/:qid/accept/:aid → status only
func (c *Client) AcceptAnswer(ctx context.Context, questionID, answerID int64) error {
	return c.do(ctx, "questions.accept", http.MethodPut,
		fmt.Sprintf("/questions/%d/accept/%d", questionID, answerID), nil, nil)
}

type voteBody struct {
	VoteType model.VoteType `json:"voteType"`
}
