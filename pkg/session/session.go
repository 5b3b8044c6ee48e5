// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package session provides the in-memory, per-session conversation store.
// Transcripts are append-only and volatile: nothing survives a restart.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmolins/convo/pkg/llm"
)

// Message is a single transcript entry. Immutable once appended.
type Message struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Role       llm.Role       `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Session owns one transcript. Appends for a single session serialize on
// the session's own mutex; distinct sessions never contend.
type Session struct {
	id string

	mu       sync.Mutex
	messages []Message
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append adds a message to the transcript and returns the stored copy.
func (s *Session) Append(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SessionID == "" {
		msg.SessionID = s.id
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the transcript in append order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// History renders the transcript as llm messages, ready for a chat request.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]llm.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}
	return out
}

// Store maps session ids to sessions. Sessions are created lazily on first
// reference and never evicted; the unbounded growth is a known, deliberate
// trade-off for this service.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it on first reference.
// Concurrent calls for the same id always observe the same *Session.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = &Session{id: id}
	st.sessions[id] = s
	return s
}

// Get returns the session for id if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Clear removes the session for id.
func (st *Store) Clear(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Sessions returns all known session ids, sorted.
func (st *Store) Sessions() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
