package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strumline/strumline/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecallSummaries(t *testing.T) {
	s := openTestStore(t)

	summaries := []model.SessionSummary{
		{ID: "a", FinalScore: 120.5, FinalCombo: 4, TotalNotes: 30, TimePlayed: 61.2, Difficulty: model.DifficultyMedium},
		{ID: "b", FinalScore: 980.0, FinalCombo: 12, TotalNotes: 88, TimePlayed: 205.7, Difficulty: model.DifficultyHard},
		{ID: "c", FinalScore: 440.25, FinalCombo: 7, TotalNotes: 52, TimePlayed: 130.0, Difficulty: model.DifficultyMedium},
	}
	for _, sum := range summaries {
		require.NoError(t, s.SaveSummary(sum))
	}

	recent, err := s.Recent(2)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(recent, 2)
	// highest score first
	assert.Equal("b", recent[0].ID)
	assert.Equal("c", recent[1].ID)
	assert.Equal(model.DifficultyHard, recent[0].Difficulty)
	assert.InDelta(980.0, recent[0].FinalScore, 1e-9)
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	recent, err := s.Recent(10)

	assert.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)

	sum := model.SessionSummary{ID: "a", FinalScore: 10}
	require.NoError(t, s.SaveSummary(sum))
	assert.Error(t, s.SaveSummary(sum))
}
