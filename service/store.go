package service

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/paulzwecker/asklio-case-study/config"
	"github.com/paulzwecker/asklio-case-study/model"
)

// RequestStore is an in-memory store for procurement requests
// In production, this should be replaced with a database
type RequestStore struct {
	requests    map[uuid.UUID]*model.ProcurementRequest
	mu          sync.RWMutex
	maxRequests int // Maximum requests to keep, 0 = unlimited
}

var (
	globalStore *RequestStore
	storeOnce   sync.Once
)

// InitRequestStore initializes the global request store with configuration
func InitRequestStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		maxRequests := cfg.MaxRequests
		if maxRequests < 0 {
			maxRequests = 0
		}
		globalStore = &RequestStore{
			requests:    make(map[uuid.UUID]*model.ProcurementRequest),
			maxRequests: maxRequests,
		}
		slog.Info("request store initialized", "max_requests", maxRequests)
	})
}

// GetRequestStore returns the global request store
func GetRequestStore() *RequestStore {
	if globalStore == nil {
		// Fallback initialization with default settings
		globalStore = &RequestStore{
			requests: make(map[uuid.UUID]*model.ProcurementRequest),
		}
	}
	return globalStore
}

// NewRequestStore creates an isolated store, used by tests and by callers
// that don't want the process-wide instance
func NewRequestStore(maxRequests int) *RequestStore {
	if maxRequests < 0 {
		maxRequests = 0
	}
	return &RequestStore{
		requests:    make(map[uuid.UUID]*model.ProcurementRequest),
		maxRequests: maxRequests,
	}
}

// ListFilter narrows the result of List. Zero values mean "no filter".
type ListFilter struct {
	Status     model.RequestStatus // exact match
	Department string              // case-insensitive exact match
	Search     string              // case-insensitive substring over title or vendor name
}

// List returns copies of all requests matching the filter, oldest first
func (s *RequestStore) List(filter ListFilter) []*model.ProcurementRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.ProcurementRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(r.Department, filter.Department) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(r.Title), needle) &&
				!strings.Contains(strings.ToLower(r.VendorName), needle) {
				continue
			}
		}
		result = append(result, r.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Get returns a copy of the request, or nil if unknown
func (s *RequestStore) Get(id uuid.UUID) *model.ProcurementRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil
	}
	return r.Clone()
}

// Create stores a new request
func (s *RequestStore) Create(req *model.ProcurementRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[req.ID] = req.Clone()
	s.cleanupIfNeeded()
}

// Update overwrites an existing request. Returns ErrNotFound for unknown IDs.
func (s *RequestStore) Update(req *model.ProcurementRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; !ok {
		return ErrNotFound
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

// cleanupIfNeeded removes oldest requests if store exceeds maxRequests
// Must be called with lock held
func (s *RequestStore) cleanupIfNeeded() {
	if s.maxRequests <= 0 {
		return // Unlimited
	}

	if len(s.requests) <= s.maxRequests {
		return
	}

	requests := make([]*model.ProcurementRequest, 0, len(s.requests))
	for _, r := range s.requests {
		requests = append(requests, r)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	removeCount := len(requests) - s.maxRequests
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old request",
			"request_id", requests[i].ID,
			"created_at", requests[i].CreatedAt,
		)
		delete(s.requests, requests[i].ID)
	}
}

// Count returns the number of requests in the store
func (s *RequestStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}
