package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sakif/qaforum/internal/model"
)

type answerData struct {
	Answer model.Answer `json:"answer"`
}

type contentBody struct {
	Content string `json:"content"`
}

// ListAnswers returns the answers of one question.
// GET /answers/question/:id → {answers}
func (c *Client) ListAnswers(ctx context.Context, questionID int64) ([]model.Answer, error) {
	var out struct {
		Answers []model.Answer `json:"answers"`
	}
	err := c.do(ctx, "answers.list", http.MethodGet, fmt.Sprintf("/answers/question/%d", questionID), nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Answers == nil {
		return []model.Answer{}, nil
	}
	return out.Answers, nil
}

// CreateAnswer posts an answer to a question.
// POST /answers/question/:id {content} → {answer}
func (c *Client) CreateAnswer(ctx context.Context, questionID int64, content string) (*model.Answer, error) {
	var out answerData
	err := c.do(ctx, "answers.create", http.MethodPost, fmt.Sprintf("/answers/question/%d", questionID),
		contentBody{Content: content}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Answer, nil
}

// UpdateAnswer edits an answer's content.
// PUT /answers/:id {content} → {answer}
func (c *Client) UpdateAnswer(ctx context.Context, id int64, content string) (*model.Answer, error) {
	var out answerData
	err := c.do(ctx, "answers.update", http.MethodPut, fmt.Sprintf("/answers/%d", id),
		contentBody{Content: content}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Answer, nil
}

// DeleteAnswer removes an answer.
// DELETE /answers/:id → status only
func (c *Client) DeleteAnswer(ctx context.Context, id int64) error {
	return c.do(ctx, "answers.delete", http.MethodDelete, fmt.Sprintf("/answers/%d", id), nil, nil)
}

// VoteAnswer records an up or down vote on an answer.
// POST /answers/:id/vote {voteType} → status only
func (c *Client) VoteAnswer(ctx context.Context, id int64, vote model.VoteType) error {
	return c.do(ctx, "answers.vote", http.MethodPost, fmt.Sprintf("/answers/%d/vote", id),
		voteBody{VoteType: vote}, nil)
}
