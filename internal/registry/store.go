// Package registry keeps the roster of capture agents seen by nanoaudit.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// Agent is one capture agent, as reported by a backend and as observed in
// fetched records. Agents seen only in records have no Name.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	LogsCollected int64     `json:"logs_collected"` // reported by the backend
	Observed      int       `json:"observed"`       // records in the current collection
	Findings      int       `json:"findings"`
	FirstSeenAt   int64     `json:"first_seen_at"` // record timestamps, unix seconds
	LastSeenAt    int64     `json:"last_seen_at"`
}

// Store handles the roster. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	now    func() time.Time
}

// NewStore creates an empty roster.
func NewStore() *Store {
	return &Store{
		agents: make(map[string]*Agent),
		now:    time.Now,
	}
}

func (s *Store) agent(id string) *Agent {
	a, ok := s.agents[id]
	if !ok {
		a = &Agent{ID: id}
		s.agents[id] = a
	}
	return a
}

// RegisterOrUpdate records backend metadata, keeping observed counters.
func (s *Store) RegisterOrUpdate(in model.Agent) {
	if in.UUID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.agent(in.UUID)
	a.Name = in.Name
	a.LogsCollected = in.LogsCollected
	if !in.CreatedAt.IsZero() {
		a.CreatedAt = in.CreatedAt
	}
}

// Observe folds a record collection into the roster.
func (s *Store) Observe(records []model.LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.AgentID == "" {
			continue
		}
		a := s.agent(r.AgentID)
		if a.Observed == 0 || r.Timestamp < a.FirstSeenAt {
			a.FirstSeenAt = r.Timestamp
		}
		if r.Timestamp > a.LastSeenAt {
			a.LastSeenAt = r.Timestamp
		}
		a.Observed++
		a.Findings += len(r.RequestFindings) + len(r.ResponseFindings)
	}
}

// GetAgent retrieves an agent by id.
func (s *Store) GetAgent(id string) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, false
	}
	return *a, true
}

// ListAgents returns agents, most recently seen first.
func (s *Store) ListAgents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Agent, 0, len(s.agents))
	for _, a := range s.agents {
		list = append(list, *a)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastSeenAt != list[j].LastSeenAt {
			return list[i].LastSeenAt > list[j].LastSeenAt
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// PruneStaleAgents removes agents with no record within timeout of now.
// Agents never seen in records are pruned as well.
func (s *Store) PruneStaleAgents(timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-timeout).Unix()
	count := 0

	for id, a := range s.agents {
		if a.LastSeenAt < cutoff {
			delete(s.agents, id)
			count++
		}
	}
	return count
}

// RowID lets agents populate an engine table.
func (a Agent) RowID() string { return a.ID }
