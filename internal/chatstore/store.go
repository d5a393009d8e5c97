package chatstore

import (
	"sort"
	"sync"

	"legalaid-admin/internal/domain"
)

// Store is the single source of truth for every conversation's message
// sequence and for the online-user set. All mutation goes through this API;
// accessors hand out copies, never the backing slices.
type Store struct {
	mu            sync.RWMutex
	conversations map[string][]domain.Message
	online        []domain.User
}

func New() *Store {
	return &Store{
		conversations: make(map[string][]domain.Message),
	}
}

// SetHistory replaces the full sequence for a conversation. The server's
// timestamps are authoritative, so the history is sorted by CreatedAt
// (stable, so equal timestamps keep server order).
func (s *Store) SetHistory(queryID string, messages []domain.Message) {
	history := make([]domain.Message, len(messages))
	copy(history, messages)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	s.mu.Lock()
	s.conversations[queryID] = history
	s.mu.Unlock()
}

// Append inserts a message at the tail of its conversation. Idempotent by
// message id: appending an id that already exists is a no-op. A message
// whose TempID matches an existing optimistic entry resolves that entry in
// place (same slot, server id and timestamp take over) instead of creating
// a duplicate.
func (s *Store) Append(queryID string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.conversations[queryID]
	for i := range history {
		if history[i].ID == msg.ID {
			return
		}
		if msg.TempID != "" && history[i].ID == msg.TempID {
			msg.TempID = ""
			history[i] = msg
			return
		}
	}
	s.conversations[queryID] = append(history, msg)
}

// UpdateStatus mutates a message's delivery status in place. Order is never
// affected. Unknown ids are ignored.
func (s *Store) UpdateStatus(queryID, messageID string, status domain.DeliveryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.conversations[queryID]
	for i := range history {
		if history[i].ID == messageID {
			history[i].Status = status
			return
		}
	}
}

// Messages returns a copy of the conversation's sequence. Unknown ids yield
// an empty slice, never an error.
func (s *Store) Messages(queryID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.conversations[queryID]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// HasAdminReply reports whether any Admin-authored message exists in the
// conversation. The status-coupling policy uses this to detect the first
// reply.
func (s *Store) HasAdminReply(queryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msg := range s.conversations[queryID] {
		if msg.SenderRole == domain.RoleAdmin {
			return true
		}
	}
	return false
}

// SetOnlineUsers replaces the online set wholesale.
func (s *Store) SetOnlineUsers(users []domain.User) {
	online := make([]domain.User, len(users))
	copy(online, users)

	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
}

// OnlineUsers returns a copy of the current online set.
func (s *Store) OnlineUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.online))
	copy(out, s.online)
	return out
}
