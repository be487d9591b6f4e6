package adjust

import (
	"sync"

	"github.com/use-agent/variantsync/driver"
)

// StrategyMemory remembers which price-surface strategy last worked so the
// next variant tries it first. Storefront markup is uniform within a run, so
// one winner usually serves every row.
type StrategyMemory struct {
	mu   sync.Mutex
	last driver.Strategy
	wins map[driver.Strategy]int
}

// NewStrategyMemory returns an empty memory.
func NewStrategyMemory() *StrategyMemory {
	return &StrategyMemory{wins: make(map[driver.Strategy]int)}
}

// Get returns the remembered strategy, or "" if none.
func (m *StrategyMemory) Get() driver.Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Set records a successful strategy.
func (m *StrategyMemory) Set(s driver.Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = s
	m.wins[s]++
}

// Delete forgets the remembered strategy (e.g. after it stopped finding fields).
func (m *StrategyMemory) Delete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = ""
}

// Wins returns how often a strategy succeeded.
func (m *StrategyMemory) Wins(s driver.Strategy) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wins[s]
}

// Order returns base with the remembered strategy moved to the front.
// The relative order of the others is kept.
func (m *StrategyMemory) Order(base []driver.Strategy) []driver.Strategy {
	last := m.Get()
	out := make([]driver.Strategy, 0, len(base))
	for _, s := range base {
		if s == last {
			out = append(out, s)
		}
	}
	for _, s := range base {
		if s != last {
			out = append(out, s)
		}
	}
	return out
}
