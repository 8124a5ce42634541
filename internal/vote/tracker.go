// Package vote tracks the viewer's own vote on one question or answer.
//
// The direction shown by the vote buttons is view-owned state. It lives
// here, apart from the server-confirmed counter in the question store, and
// is translated into the ±1 submissions the store understands:
//
//	none → up     submit up                    (+1)
//	up   → none   submit down                  (−1, clicking up again)
//	down → up     submit up, submit up         (+2: cancel, then vote)
//
// so pressing the same button twice always nets to zero.
package vote

import (
	"context"

	"github.com/sakif/qaforum/internal/model"
)

// Step is one submission and the direction it leaves the viewer in.
type Step struct {
	Submit    model.VoteType
	Direction model.VoteDirection
}

// Plan returns the submissions that move a viewer whose current direction
// is cur to the result of pressing the v button.
func Plan(cur model.VoteDirection, v model.VoteType) []Step {
	target := model.VoteDirection(v)
	switch cur {
	case model.DirectionNone:
		return []Step{{Submit: v, Direction: target}}
	case target:
		return []Step{{Submit: v.Opposite(), Direction: model.DirectionNone}}
	default:
		return []Step{
			{Submit: v, Direction: model.DirectionNone},
			{Submit: v, Direction: target},
		}
	}
}

// SubmitFunc sends one vote, e.g. QuestionStore.VoteQuestion bound to an ID.
type SubmitFunc func(ctx context.Context, v model.VoteType) error

// Tracker holds the viewer's direction for a single entity.
// It is not safe for concurrent use; each view owns its own.
type Tracker struct {
	dir model.VoteDirection
}

// Direction returns the current "my vote" indicator.
func (t *Tracker) Direction() model.VoteDirection {
	return t.dir
}

// Press applies a click on the v button. Steps are submitted in order and
// the direction follows each one that succeeds, so a failure part way
// through leaves the tracker agreeing with what the backend counted.
func (t *Tracker) Press(ctx context.Context, v model.VoteType, submit SubmitFunc) error {
	for _, step := range Plan(t.dir, v) {
		if err := submit(ctx, step.Submit); err != nil {
			return err
		}
		t.dir = step.Direction
	}
	return nil
}

// Reset forgets the direction, e.g. when the viewer logs out.
func (t *Tracker) Reset() {
	t.dir = model.DirectionNone
}
