// Package memory is an in-process ReportWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"carteira/internal/core"
)

type Store struct {
	mu      sync.Mutex
	reports []core.MonthOverview
}

func New() *Store {
	return &Store{}
}

// WriteMonthOverview stores the overview and returns a synthetic reference.
func (s *Store) WriteMonthOverview(_ context.Context, o core.MonthOverview) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, o)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns a copy of everything written so far.
func (s *Store) Reports() []core.MonthOverview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthOverview(nil), s.reports...)
}
