package goal

import (
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoal(t *testing.T, target float64, status Status) *Goal {
	t.Helper()
	g, err := New("u1", Details{Title: "steps", TargetValue: target, Unit: "steps"}, time.Now())
	require.NoError(t, err)
	g.Status = status
	g.PopEvents()
	return g
}

func TestApplyProgress(t *testing.T) {
	cases := []struct {
		name   string
		status Status
		value  float64
		want   Status
	}{
		{"partial progress starts the goal", Pending, 3500, InProgress},
		{"reaching the target completes", InProgress, 10000, Completed},
		{"overshooting completes", Pending, 12000, Completed},
		{"zero keeps completed", Completed, 0, Completed},
		{"zero keeps pending", Pending, 0, Pending},
		{"negative keeps in progress", InProgress, -5, InProgress},
		{"partial progress reopens completed", Completed, 100, InProgress},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGoal(t, 10000, tc.status)
			g.ApplyProgress(tc.value)
			assert.Equal(t, tc.want, g.Status)
			assert.Equal(t, tc.value, g.CurrentValue)
		})
	}
}

func TestApplyProgressEmitsCompletedOnce(t *testing.T) {
	g := newGoal(t, 100, Pending)

	g.ApplyProgress(100)
	events := g.PopEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCompleted, events[0].Type())

	g.ApplyProgress(150)
	assert.Empty(t, g.PopEvents())
}

func TestNewRejectsNonPositiveTarget(t *testing.T) {
	_, err := New("u1", Details{TargetValue: 0}, time.Now())
	require.ErrorIs(t, err, ErrInvalidTarget)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyUsesStoredTarget(t *testing.T) {
	g := newGoal(t, 100, Pending)
	value := 60.0
	target := 50.0

	require.NoError(t, g.Apply(Patch{CurrentValue: &value, TargetValue: &target}, time.Now()))

	assert.Equal(t, InProgress, g.Status)
	assert.Equal(t, 50.0, g.TargetValue)
}
