package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginMintsIDWhenEmpty(t *testing.T) {
	s := Begin("")
	assert.NotEmpty(t, s.ID())
}

func TestRecordAccumulatesTotals(t *testing.T) {
	s := Begin("sess-1")
	s.Record("summarize_logs", 100, 20, 80, false)
	s.Record("deduplicate_errors", 50, 10, 40, false)

	stats := s.Stats()
	assert.Equal(t, 150, stats.TokensIn)
	assert.Equal(t, 30, stats.TokensOut)
	assert.Equal(t, 120, stats.TokensSaved)
	assert.Equal(t, 2, stats.CommandCount)
}

func TestRecentReverseChronological(t *testing.T) {
	s := Begin("sess-1")
	s.Record("a", 1, 1, 0, false)
	s.Record("b", 1, 1, 0, false)
	s.Record("c", 1, 1, 0, false)

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ToolName)
	assert.Equal(t, "b", recent[1].ToolName)
}

func TestCommandLogBounded(t *testing.T) {
	s := Begin("sess-1")
	for i := 0; i < MaxCommandLog+10; i++ {
		s.Record("t", 1, 1, 0, false)
	}
	assert.Equal(t, MaxCommandLog, s.Stats().CommandCount)
}

func TestConcurrentRecordIsSerialized(t *testing.T) {
	s := Begin("sess-1")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record("t", 1, 0, 0, false)
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.Stats().TokensIn)
}

func TestTrackErrorSignatureDedupes(t *testing.T) {
	s := Begin("sess-1")
	s.TrackErrorSignature("TS2304:Cannot find name 'X'.")
	s.TrackErrorSignature("TS2304:Cannot find name 'X'.")
	s.TrackErrorSignature("TS2339:Property 'X' does not exist.")
	assert.Equal(t, 2, s.Stats().UniqueErrorSignatures)
}
