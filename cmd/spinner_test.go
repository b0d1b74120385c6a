package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func TestSpinnerShowsElapsedTime(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	model := newSpinnerModel("Generating your website...", nil, clock.Now)
	assert.Contains(t, model.View(), "Generating your website...")
	assert.Contains(t, model.View(), "0s")

	clock.now = clock.now.Add(3*time.Second + 400*time.Millisecond)
	next, _ := model.Update(spinner.TickMsg{})
	model = next.(spinnerModel)

	assert.Contains(t, model.View(), "3s")
	assert.NotContains(t, model.View(), "can take a minute")
}

func TestSpinnerHintsWhenTaskIsSlow(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	model := newSpinnerModel("Generating your website...", nil, clock.Now)

	clock.now = clock.now.Add(slowTaskAfter + time.Second)
	next, _ := model.Update(spinner.TickMsg{})

	view := next.(spinnerModel).View()
	assert.Contains(t, view, "16s")
	assert.Contains(t, view, "AI generation can take a minute")
}

func TestSpinnerFinalLineReportsOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", want: "Regenerating hero... done in 7s"},
		{name: "failure", err: errors.New("quota exhausted"), want: "Regenerating hero... failed after 7s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			model := newSpinnerModel("Regenerating hero...", nil, clock.Now)

			clock.now = clock.now.Add(7 * time.Second)
			next, cmd := model.Update(taskDoneMsg{err: tt.err})
			require.NotNil(t, cmd)

			final := next.(spinnerModel)
			assert.True(t, final.done)
			assert.Equal(t, tt.err, final.err)
			assert.Contains(t, final.View(), tt.want)
		})
	}
}

func TestRunWithSpinnerReturnsTaskError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	boom := errors.New("generation failed")
	err := runWithSpinner(context.Background(), &out, "Generating your website...", func(context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "Generating your website... failed after")
}
