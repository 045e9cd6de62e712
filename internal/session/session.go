// Package session implements the per-session accumulator (§4.I): token
// totals, a bounded command log, and project/model binding. Mutations
// are local to one session and serialize against concurrent callers on
// that same session.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CommandRecord is one entry in a session's command log.
type CommandRecord struct {
	ToolName    string
	At          time.Time
	TokensIn    int
	TokensOut   int
	TokensSaved int
	WasFiltered bool
}

// ProjectDescriptor binds a session to an external project identity.
type ProjectDescriptor struct {
	ID   string
	Name string
	Root string
}

// Stats is the read-only snapshot returned by Stats().
type Stats struct {
	SessionID             string
	StartedAt             time.Time
	TokensIn              int
	TokensOut             int
	TokensSaved           int
	UniqueErrorSignatures int
	RetryPatternCount     int
	Project               *ProjectDescriptor
	RegisteredModel       string
	CommandCount          int
}

// MaxCommandLog bounds the in-memory command log ring the way the
// teacher bounds its slab allocators — unbounded growth in a
// long-running MCP session would otherwise be the one genuinely
// unbounded structure in this process.
const MaxCommandLog = 500

// State is a single session's mutable state. All access goes through the
// methods below, which hold the internal mutex; external callers never
// see partial updates.
type State struct {
	mu sync.Mutex

	sessionID             string
	startedAt             time.Time
	commandLog            []CommandRecord
	tokensIn              int
	tokensOut             int
	tokensSaved           int
	uniqueErrorSignatures map[string]struct{}
	retryPatternCount     int
	project               *ProjectDescriptor
	registeredModel       string
}

// Begin starts a new session. If sessionID is empty, one is minted.
func Begin(sessionID string) *State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &State{
		sessionID:             sessionID,
		startedAt:             time.Now(),
		uniqueErrorSignatures: make(map[string]struct{}),
	}
}

// Record appends a CommandRecord and updates running totals. Errors
// surfaced by an error-signature-producing tool (builderrors) should be
// fed to TrackErrorSignature separately so the session's unique count
// stays accurate.
func (s *State) Record(toolName string, tokensIn, tokensOut, tokensSaved int, wasFiltered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := CommandRecord{
		ToolName:    toolName,
		At:          time.Now(),
		TokensIn:    tokensIn,
		TokensOut:   tokensOut,
		TokensSaved: tokensSaved,
		WasFiltered: wasFiltered,
	}
	s.commandLog = append(s.commandLog, rec)
	if len(s.commandLog) > MaxCommandLog {
		s.commandLog = s.commandLog[len(s.commandLog)-MaxCommandLog:]
	}

	s.tokensIn += tokensIn
	s.tokensOut += tokensOut
	s.tokensSaved += tokensSaved

	if s.isRetry(toolName) {
		s.retryPatternCount++
	}
}

// isRetry reports whether the previous command targeted the same tool,
// a cheap proxy for a retry loop. Caller must hold s.mu.
func (s *State) isRetry(toolName string) bool {
	if len(s.commandLog) < 2 {
		return false
	}
	prev := s.commandLog[len(s.commandLog)-2]
	return prev.ToolName == toolName
}

// TrackErrorSignature registers an error signature as seen by this
// session, growing UniqueErrorSignatures at most once per distinct
// signature.
func (s *State) TrackErrorSignature(signature string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniqueErrorSignatures[signature] = struct{}{}
}

// SetModel records the model identifier the caller is driving this
// session with.
func (s *State) SetModel(modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredModel = modelID
}

// BindProject associates this session with a project.
func (s *State) BindProject(p ProjectDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = &p
}

// Stats returns a point-in-time snapshot of the session.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		SessionID:             s.sessionID,
		StartedAt:             s.startedAt,
		TokensIn:              s.tokensIn,
		TokensOut:             s.tokensOut,
		TokensSaved:           s.tokensSaved,
		UniqueErrorSignatures: len(s.uniqueErrorSignatures),
		RetryPatternCount:     s.retryPatternCount,
		Project:               s.project,
		RegisteredModel:       s.registeredModel,
		CommandCount:          len(s.commandLog),
	}
}

// Recent returns the last n CommandRecords in reverse chronological
// order (most recent first).
func (s *State) Recent(n int) []CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.commandLog) == 0 {
		return nil
	}
	if n > len(s.commandLog) {
		n = len(s.commandLog)
	}
	out := make([]CommandRecord, n)
	for i := 0; i < n; i++ {
		out[i] = s.commandLog[len(s.commandLog)-1-i]
	}
	return out
}

// ID returns the session identifier.
func (s *State) ID() string { return s.sessionID }
