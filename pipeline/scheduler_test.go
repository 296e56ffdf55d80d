package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, category string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, category)
	if r.fail[category] {
		return &Report{Category: category}, errors.New("interrupted")
	}
	return &Report{Category: category, Saved: 1}, nil
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler("*/5 * * * *", nil, &recordingRunner{}, nil)
	assert.Error(t, err, "categories are required")

	_, err = NewScheduler("every now and then", []string{"all"}, &recordingRunner{}, nil)
	assert.Error(t, err)

	s, err := NewScheduler("@every 15m", []string{"all"}, &recordingRunner{}, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestScheduler_RunOnce(t *testing.T) {
	runner := &recordingRunner{fail: map[string]bool{"spor": true}}
	s, err := NewScheduler("*/10 * * * *", []string{"breaking", "spor", "ekonomi"}, runner, nil)
	require.NoError(t, err)

	reports := s.RunOnce(context.Background())
	assert.Equal(t, []string{"breaking", "spor", "ekonomi"}, runner.seen)
	require.Len(t, reports, 3, "interrupted runs still report")
	assert.Equal(t, 1, reports[0].Saved)
}

func TestScheduler_RunOnce_StopsWhenCanceled(t *testing.T) {
	runner := &recordingRunner{}
	s, err := NewScheduler("*/10 * * * *", []string{"a", "b"}, runner, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, s.RunOnce(ctx))
	assert.Empty(t, runner.seen)
}
