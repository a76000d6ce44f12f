package store

import (
	"sort"
	"sync"

	"github.com/tabuasmare/marebot/internal/models"
)

// UserAlert pairs an alert with the user who registered it
type UserAlert struct {
	UserID int64
	Alert  models.AlertConfig
}

// MemoryStore keeps per-user history and alerts for the life of the process
type MemoryStore struct {
	mu      sync.RWMutex
	history map[int64][]string
	alerts  map[int64]models.AlertConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[int64][]string),
		alerts:  make(map[int64]models.AlertConfig),
	}
}

// RecordHistory appends place unless the user already has that exact string
func (s *MemoryStore) RecordHistory(userID int64, place string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.history[userID] {
		if existing == place {
			return
		}
	}
	s.history[userID] = append(s.history[userID], place)
}

// History returns a copy of the user's places in insertion order
func (s *MemoryStore) History(userID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	places := make([]string, len(s.history[userID]))
	copy(places, s.history[userID])
	return places
}

// SetAlert replaces any alert the user had
func (s *MemoryStore) SetAlert(userID int64, alert models.AlertConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[userID] = alert
}

func (s *MemoryStore) Alert(userID int64) (models.AlertConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.alerts[userID]
	return alert, ok
}

// Alerts returns a snapshot of every alert ordered by user id
func (s *MemoryStore) Alerts() []UserAlert {
	s.mu.RLock()
	result := make([]UserAlert, 0, len(s.alerts))
	for userID, alert := range s.alerts {
		result = append(result, UserAlert{UserID: userID, Alert: alert})
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	return result
}
