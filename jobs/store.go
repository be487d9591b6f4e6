// Package jobs tracks adjustment runs: an in-memory store with TTL eviction
// and a runner that allows one active run per browser session.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/variantsync/models"
)

// Store is an in-memory run store. It is safe for concurrent use.
// Finished runs expire after the TTL; the active run is never evicted.
type Store struct {
	mu         sync.RWMutex
	runs       map[string]*models.RunJob
	active     string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewStore creates a Store. A background goroutine evicts expired runs every
// 5 minutes until Close is called.
func NewStore(maxEntries int, ttl time.Duration) *Store {
	s := newStore(maxEntries, ttl, time.Now)
	go s.cleanupLoop()
	return s
}

func newStore(maxEntries int, ttl time.Duration, now func() time.Time) *Store {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &Store{
		runs:       make(map[string]*models.RunJob),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        now,
		stop:       make(chan struct{}),
	}
}

// Begin registers a new running job. It fails with RUN_IN_PROGRESS while
// another run is active.
func (s *Store) Begin(pagesWanted int) (models.RunJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != "" {
		return models.RunJob{}, models.NewRunError(
			models.ErrCodeRunInProgress,
			"run "+s.active+" is still active",
			nil,
		)
	}
	s.evictLocked()
	if len(s.runs) >= s.maxEntries {
		s.evictOldestLocked()
	}

	job := &models.RunJob{
		ID:          "run-" + randomID(),
		Status:      models.RunStatusRunning,
		PagesWanted: pagesWanted,
		Pages:       []models.PageResult{},
		CreatedAt:   s.now().Unix(),
	}
	s.runs[job.ID] = job
	s.active = job.ID
	return cloneJob(job), nil
}

// AppendPage records a finished page of a running job.
func (s *Store) AppendPage(id string, page models.PageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.runs[id]; ok {
		job.Pages = append(job.Pages, page)
	}
}

// Finish marks a job done and releases the active slot.
func (s *Store) Finish(id, status string, summary models.PageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.runs[id]; ok {
		job.Status = status
		job.Summary = summary
		job.FinishedAt = s.now().Unix()
	}
	if s.active == id {
		s.active = ""
	}
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (models.RunJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.runs[id]
	if !ok {
		return models.RunJob{}, false
	}
	return cloneJob(job), true
}

// Active returns the id of the running job, if any.
func (s *Store) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// cleanupLoop evicts expired runs every 5 minutes.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.evictLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Store) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	for id, job := range s.runs {
		if id != s.active && job.FinishedAt != 0 && job.FinishedAt < cutoff {
			delete(s.runs, id)
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldest *models.RunJob
	for id, job := range s.runs {
		if id == s.active {
			continue
		}
		if oldest == nil || job.CreatedAt < oldest.CreatedAt {
			oldest = job
		}
	}
	if oldest != nil {
		delete(s.runs, oldest.ID)
	}
}

func cloneJob(job *models.RunJob) models.RunJob {
	cp := *job
	cp.Pages = make([]models.PageResult, len(job.Pages))
	copy(cp.Pages, job.Pages)
	return cp
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
