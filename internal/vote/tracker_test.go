package vote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/qaforum/internal/model"
)

// counter stands in for the store: it applies each confirmed vote's delta.
type counter struct {
	votes  int
	sent   []model.VoteType
	failAt int // 1-based submission that fails; 0 never fails
}

func (c *counter) submit(_ context.Context, v model.VoteType) error {
	c.sent = append(c.sent, v)
	if c.failAt == len(c.sent) {
		return errors.New("offline")
	}
	c.votes += v.Delta()
	return nil
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		cur   model.VoteDirection
		press model.VoteType
		want  []Step
	}{
		{"first up", model.DirectionNone, model.VoteUp, []Step{{model.VoteUp, model.DirectionUp}}},
		{"first down", model.DirectionNone, model.VoteDown, []Step{{model.VoteDown, model.DirectionDown}}},
		{"undo up", model.DirectionUp, model.VoteUp, []Step{{model.VoteDown, model.DirectionNone}}},
		{"undo down", model.DirectionDown, model.VoteDown, []Step{{model.VoteUp, model.DirectionNone}}},
		{"switch to up", model.DirectionDown, model.VoteUp, []Step{
			{model.VoteUp, model.DirectionNone},
			{model.VoteUp, model.DirectionUp},
		}},
		{"switch to down", model.DirectionUp, model.VoteDown, []Step{
			{model.VoteDown, model.DirectionNone},
			{model.VoteDown, model.DirectionDown},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.cur, tt.press))
		})
	}
}

func TestPress_SameTwiceNetsZero(t *testing.T) {
	ctx := context.Background()
	for _, v := range []model.VoteType{model.VoteUp, model.VoteDown} {
		c := &counter{}
		var tr Tracker

		require.NoError(t, tr.Press(ctx, v, c.submit))
		assert.Equal(t, model.VoteDirection(v), tr.Direction())
		require.NoError(t, tr.Press(ctx, v, c.submit))

		assert.Equal(t, model.DirectionNone, tr.Direction())
		assert.Zero(t, c.votes)
	}
}

func TestPress_Switch(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	var tr Tracker

	require.NoError(t, tr.Press(ctx, model.VoteDown, c.submit))
	require.NoError(t, tr.Press(ctx, model.VoteUp, c.submit))

	assert.Equal(t, model.DirectionUp, tr.Direction())
	assert.Equal(t, 1, c.votes)
}

func TestPress_FailureKeepsLastConfirmedDirection(t *testing.T) {
	ctx := context.Background()

	c := &counter{failAt: 1}
	var tr Tracker
	assert.Error(t, tr.Press(ctx, model.VoteUp, c.submit))
	assert.Equal(t, model.DirectionNone, tr.Direction())
	assert.Zero(t, c.votes)

	// down is confirmed, then the switch fails half way
	c = &counter{failAt: 3}
	tr.Reset()
	require.NoError(t, tr.Press(ctx, model.VoteDown, c.submit))
	assert.Error(t, tr.Press(ctx, model.VoteUp, c.submit))
	assert.Equal(t, model.DirectionNone, tr.Direction())
	assert.Zero(t, c.votes)
}
