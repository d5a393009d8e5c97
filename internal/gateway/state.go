package gateway

import (
	"fmt"
	"sync"
	"time"

	"legalaid-admin/internal/domain"
	legalaid_errors "legalaid-admin/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// account is a seeded platform user with credentials.
type account struct {
	domain.User
	PasswordHash []byte
}

// State is the gateway's in-memory stand-in for the platform's persistence.
// It enforces the rules the production backend is authoritative for: the
// forward-only query lifecycle and the closed-conversation send guard.
type State struct {
	mu       sync.RWMutex
	queries  map[string]*domain.Query
	messages map[string][]domain.Message
	accounts map[string]*account // keyed by user id
	content  map[string][]map[string]any
}

func NewState() *State {
	return &State{
		queries:  make(map[string]*domain.Query),
		messages: make(map[string][]domain.Message),
		accounts: make(map[string]*account),
		content:  make(map[string][]map[string]any),
	}
}

// SeedAdmin registers the admin account the gateway authenticates.
func (s *State) SeedAdmin(email, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	admin := &account{
		User: domain.User{
			ID:        uuid.New().String(),
			FullName:  "Platform Admin",
			Email:     email,
			Role:      "Admin",
			CreatedAt: time.Now(),
		},
		PasswordHash: hash,
	}
	s.mu.Lock()
	s.accounts[admin.ID] = admin
	s.mu.Unlock()
	return admin.User, nil
}

// SeedDemo loads a couple of client accounts and open queries so the admin
// client has something to chat against.
func (s *State) SeedDemo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := []*account{
		{User: domain.User{ID: uuid.New().String(), FullName: "Asha Verma", Email: "asha@example.com", Role: "Client", CreatedAt: time.Now()}},
		{User: domain.User{ID: uuid.New().String(), FullName: "Ravi Kumar", Email: "ravi@example.com", Role: "Client", CreatedAt: time.Now()}},
	}
	for _, c := range clients {
		s.accounts[c.ID] = c
	}

	seed := []domain.Query{
		{
			ID:            uuid.New().String(),
			Subject:       "Tenant eviction notice without cause",
			Question:      "My landlord served an eviction notice with no stated reason. What are my options?",
			FullName:      clients[0].FullName,
			Email:         clients[0].Email,
			Age:           34,
			Gender:        "Female",
			City:          "Pune",
			State:         "Maharashtra",
			IssueCategory: domain.CategoryPropertyDispute,
			UrgencyLevel:  domain.UrgencyHigh,
			Status:        domain.StatusPending,
			Submitter:     domain.Submitter{ID: clients[0].ID, FullName: clients[0].FullName, Email: clients[0].Email},
			CreatedAt:     time.Now().Add(-48 * time.Hour),
			UpdatedAt:     time.Now().Add(-48 * time.Hour),
		},
		{
			ID:            uuid.New().String(),
			Subject:       "Registering a private limited company",
			Question:      "What filings are needed to incorporate, and can a co-founder abroad be a director?",
			FullName:      clients[1].FullName,
			Email:         clients[1].Email,
			Age:           27,
			Gender:        "Male",
			City:          "Bengaluru",
			State:         "Karnataka",
			IssueCategory: domain.CategoryStartup,
			UrgencyLevel:  domain.UrgencyMedium,
			Status:        domain.StatusPending,
			Submitter:     domain.Submitter{ID: clients[1].ID, FullName: clients[1].FullName, Email: clients[1].Email},
			CreatedAt:     time.Now().Add(-24 * time.Hour),
			UpdatedAt:     time.Now().Add(-24 * time.Hour),
		},
	}
	for i := range seed {
		q := seed[i]
		s.queries[q.ID] = &q
	}
}

func (s *State) Authenticate(email, password string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acct := range s.accounts {
		if acct.Email != email {
			continue
		}
		if len(acct.PasswordHash) == 0 {
			return domain.User{}, legalaid_errors.ErrUnauthorized
		}
		if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
			return domain.User{}, legalaid_errors.ErrUnauthorized
		}
		return acct.User, nil
	}
	return domain.User{}, legalaid_errors.ErrUnauthorized
}

func (s *State) User(id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return domain.User{}, legalaid_errors.ErrNotFound
	}
	return acct.User, nil
}

func (s *State) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.User)
	}
	return out
}

func (s *State) CreateUser(u domain.User, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.Email == u.Email {
			return domain.User{}, fmt.Errorf("email %s: %w", u.Email, legalaid_errors.ErrAlreadyExists)
		}
	}
	s.accounts[u.ID] = &account{User: u, PasswordHash: hash}
	return u, nil
}

// UpdateUser rewrites the mutable profile fields of an account.
func (s *State) UpdateUser(id string, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return domain.User{}, legalaid_errors.ErrNotFound
	}
	if u.FullName != "" {
		acct.FullName = u.FullName
	}
	if u.Email != "" {
		acct.Email = u.Email
	}
	if u.Role != "" {
		acct.Role = u.Role
	}
	return acct.User, nil
}

func (s *State) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return legalaid_errors.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *State) Queries() []domain.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Query, 0, len(s.queries))
	for _, q := range s.queries {
		out = append(out, *q)
	}
	return out
}

// CreateQuery registers a new support request. New queries always start
// pending regardless of what the caller sent.
func (s *State) CreateQuery(q domain.Query) domain.Query {
	q.ID = uuid.New().String()
	q.Status = domain.StatusPending
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt

	s.mu.Lock()
	s.queries[q.ID] = &q
	s.mu.Unlock()
	return q
}

func (s *State) Query(id string) (domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	if !ok {
		return domain.Query{}, legalaid_errors.ErrNotFound
	}
	return *q, nil
}

// UpdateQueryStatus validates the forward-only lifecycle before applying.
func (s *State) UpdateQueryStatus(id string, status domain.QueryStatus) (domain.Query, error) {
	return s.UpdateQuery(id, &status, nil, nil)
}

// UpdateQuery applies a partial update. A status change is validated against
// the forward-only lifecycle; nil fields are left untouched.
func (s *State) UpdateQuery(id string, status *domain.QueryStatus, subject, answer *string) (domain.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[id]
	if !ok {
		return domain.Query{}, legalaid_errors.ErrNotFound
	}
	if status != nil {
		if !domain.CanTransition(q.Status, *status) {
			return domain.Query{}, fmt.Errorf("%s -> %s: %w", q.Status, *status, legalaid_errors.ErrInvalidTransition)
		}
		q.Status = *status
	}
	if subject != nil {
		q.Subject = *subject
	}
	if answer != nil {
		q.Answer = *answer
	}
	q.UpdatedAt = time.Now()
	return *q, nil
}

func (s *State) DeleteQuery(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[id]; !ok {
		return legalaid_errors.ErrNotFound
	}
	delete(s.queries, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage persists a chat message. Sends into a closed query are
// rejected here: the gateway is the authoritative guard for the terminal
// state, whatever the client believes.
func (s *State) AppendMessage(queryID, senderID string, role domain.SenderRole, body, tempID string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queries[queryID]
	if !ok {
		return domain.Message{}, legalaid_errors.ErrNotFound
	}
	if q.Status == domain.StatusClosed {
		return domain.Message{}, legalaid_errors.ErrConversationClosed
	}

	msg := domain.Message{
		ID:         uuid.New().String(),
		QueryID:    queryID,
		SenderID:   senderID,
		SenderRole: role,
		Body:       body,
		CreatedAt:  time.Now(),
		Status:     domain.DeliverySent,
		TempID:     tempID,
	}
	s.messages[queryID] = append(s.messages[queryID], msg)
	return msg, nil
}

func (s *State) History(queryID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.messages[queryID]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// UpdateMessageStatus records a delivery/read transition and returns the
// affected message so the sender can be notified.
func (s *State) UpdateMessageStatus(messageID string, status domain.DeliveryStatus) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for queryID := range s.messages {
		history := s.messages[queryID]
		for i := range history {
			if history[i].ID == messageID {
				history[i].Status = status
				return history[i], nil
			}
		}
	}
	return domain.Message{}, legalaid_errors.ErrNotFound
}

// Analytics aggregates the snapshot served to the dashboard.
func (s *State) Analytics() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := map[string]int{}
	byCategory := map[string]int{}
	byUrgency := map[string]int{}
	open, closed := 0, 0
	for _, q := range s.queries {
		byStatus[string(q.Status)]++
		byCategory[string(q.IssueCategory)]++
		byUrgency[string(q.UrgencyLevel)]++
		if q.Status == domain.StatusClosed {
			closed++
		} else {
			open++
		}
	}
	return map[string]any{
		"totalQueries":  len(s.queries),
		"openQueries":   open,
		"closedQueries": closed,
		"totalUsers":    len(s.accounts),
		"byStatus":      byStatus,
		"byCategory":    byCategory,
		"byUrgency":     byUrgency,
	}
}

// Content CRUD backing the section editors. Items are schemaless maps with
// a generated _id, matching what the editors round-trip.
func (s *State) ContentList(section string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.content[section]
	out := make([]map[string]any, len(items))
	copy(out, items)
	return out
}

func (s *State) ContentCreate(section string, item map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	item["_id"] = uuid.New().String()
	s.content[section] = append(s.content[section], item)
	return item
}

func (s *State) ContentUpdate(section, id string, item map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.content[section]
	for i := range items {
		if items[i]["_id"] == id {
			item["_id"] = id
			items[i] = item
			return item, nil
		}
	}
	return nil, legalaid_errors.ErrNotFound
}

func (s *State) ContentDelete(section, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.content[section]
	for i := range items {
		if items[i]["_id"] == id {
			s.content[section] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return legalaid_errors.ErrNotFound
}
