package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	purgedBefore time.Time
	prunedBefore time.Time
	err          error
}

func (f *fakeStore) PurgePriceCache(_ context.Context, t time.Time) (int64, error) {
	f.purgedBefore = t
	return 3, f.err
}

func (f *fakeStore) PruneSearchHistory(_ context.Context, t time.Time) (int64, error) {
	f.prunedBefore = t
	return 1, f.err
}

func TestHousekeepingCutoffs(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	fs := &fakeStore{}
	s := New(zerolog.Nop())
	s.now = func() time.Time { return now }

	for _, task := range Housekeeping(fs, 6*time.Hour, 720*time.Hour) {
		require.NoError(t, s.Run(task))
	}
	assert.Equal(t, now.Add(-6*time.Hour), fs.purgedBefore)
	assert.Equal(t, now.Add(-720*time.Hour), fs.prunedBefore)
}

func TestRunReturnsSweepError(t *testing.T) {
	fs := &fakeStore{err: errors.New("db locked")}
	task := Housekeeping(fs, time.Hour, time.Hour)[0]
	assert.EqualError(t, New(zerolog.Nop()).Run(task), "db locked")
}

func TestAdd(t *testing.T) {
	s := New(zerolog.Nop())
	fs := &fakeStore{}
	for _, task := range Housekeeping(fs, time.Hour, time.Hour) {
		require.NoError(t, s.Add(task))
	}
	assert.Equal(t, 2, s.Len())

	err := s.Add(Task{Name: "broken", Schedule: "not a schedule", Sweep: fs.PurgePriceCache})
	assert.ErrorContains(t, err, "schedule broken")
	assert.Equal(t, 2, s.Len())
}
