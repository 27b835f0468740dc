package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDamageAssessment(t *testing.T) {
	fixed := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	d, err := NewDamageAssessment(" https://img.example/house.jpg ")
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "https://img.example/house.jpg", d.ImageURL)
	assert.Equal(t, AssessmentPending, d.Status)
	assert.True(t, d.EstimatedCost.IsZero())
	assert.Equal(t, fixed, d.CreatedAt)

	_, err = NewDamageAssessment("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDamageAssessment_Transitions(t *testing.T) {
	tests := []struct {
		from AssessmentStatus
		to   AssessmentStatus
		ok   bool
	}{
		{AssessmentPending, AssessmentProcessing, true},
		{AssessmentPending, AssessmentFailed, true},
		{AssessmentPending, AssessmentCompleted, false},
		{AssessmentProcessing, AssessmentCompleted, true},
		{AssessmentProcessing, AssessmentFailed, true},
		{AssessmentProcessing, AssessmentPending, false},
		{AssessmentCompleted, AssessmentProcessing, false},
		{AssessmentFailed, AssessmentProcessing, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			d := DamageAssessment{Status: tc.from}
			err := d.Transition(tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, d.Status)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tc.from, d.Status)
		})
	}
}

func TestDamageAssessment_CompleteAndFail(t *testing.T) {
	d := DamageAssessment{Status: AssessmentProcessing}
	require.NoError(t, d.Complete(DamageResult{
		DamageLevel:     DamageSevere,
		ConfidenceScore: 0.7,
		EstimatedCost:   decimal.RequireFromString("125000.50"),
	}))
	assert.Equal(t, AssessmentCompleted, d.Status)
	assert.Equal(t, DamageSevere, d.DamageLevel)
	assert.Equal(t, "125000.5", d.EstimatedCost.String())

	assert.ErrorIs(t, d.Fail(errors.New("late")), ErrInvalidTransition)

	d = DamageAssessment{Status: AssessmentProcessing}
	require.NoError(t, d.Fail(errors.New("model unavailable")))
	assert.Equal(t, AssessmentFailed, d.Status)
	assert.Equal(t, "model unavailable", d.ErrorMessage)
}

func TestStubAnalyzer(t *testing.T) {
	r, err := StubAnalyzer{}.Analyze(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, DamageModerate, r.DamageLevel)
	assert.Equal(t, 0.85, r.ConfidenceScore)
	assert.True(t, r.EstimatedCost.Equal(decimal.NewFromInt(50000)))

	_, err = StubAnalyzer{}.Analyze(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = StubAnalyzer{}.Analyze(ctx, "https://img.example/a.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}
