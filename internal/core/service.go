package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/feed"
	"bookstore/internal/store"

	"github.com/google/uuid"
)

// resetRetention is how long a finished reset stays queryable by ID.
const resetRetention = time.Hour

// Service owns the store handle, the snapshot client and the reset
// lifecycle. All methods are safe for concurrent use, but only one reset
// runs at a time.
type Service struct {
	store  *store.Store
	client *feed.Client

	rejectLogPath string
	reportPath    string
	resetTimeout  time.Duration

	mu        sync.RWMutex
	resets    map[string]*activeReset
	running   bool
	storeName string
	currency  string
}

// activeReset tracks one reset operation from start to completion.
type activeReset struct {
	ID       string
	Progress ResetProgress
	Result   *ResetResult
	Done     chan struct{}
}

// NewService creates the service around an open store.
func NewService(st *store.Store, client *feed.Client, cfg *config.Config) *Service {
	return &Service{
		store:         st,
		client:        client,
		rejectLogPath: cfg.Store.RejectLogPath,
		reportPath:    cfg.Store.ReportPath,
		resetTimeout:  cfg.Store.ResetTimeout,
		resets:        make(map[string]*activeReset),
	}
}

// StartReset begins an asynchronous reset and returns its ID immediately.
// Returns ErrResetInProgress while another reset is running; the rest of the
// API stays available, matching the disabled-surface rule of the original
// tool without blocking reads.
func (s *Service) StartReset(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrResetInProgress
	}
	s.running = true

	id := uuid.New().String()
	run := &activeReset{
		ID:       id,
		Progress: ResetProgress{ResetID: id, Phase: PhaseStarting},
		Done:     make(chan struct{}),
	}
	s.resets[id] = run
	s.mu.Unlock()

	// The reset outlives the triggering request; it gets its own context
	// bounded only by the configured timeout. No cancellation support.
	runCtx, cancel := context.WithTimeout(context.Background(), s.resetTimeout)

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in reset", "reset_id", id, "panic", r)
				s.fail(run, fmt.Errorf("internal error: %v", r), time.Time{})
			}
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			close(run.Done)
			s.cleanup(id, resetRetention)
		}()
		s.runReset(runCtx, run)
	}()

	return id, nil
}

// runReset executes one full fetch-validate-reload operation.
func (s *Service) runReset(ctx context.Context, run *activeReset) {
	start := time.Now()
	logger := slog.Default().With("reset_id", run.ID)

	s.setPhase(run, PhaseDownloading)
	data, err := s.client.Download(ctx)
	if err != nil {
		logger.Error("snapshot download failed", "error", err)
		s.fail(run, err, start)
		return
	}

	s.setPhase(run, PhaseParsing)
	doc, err := feed.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Error("snapshot decode failed", "error", err)
		s.fail(run, err, start)
		return
	}

	s.setPhase(run, PhaseLoading)
	rejects := &RejectionLog{}
	counts, err := s.importDocument(ctx, doc, rejects)
	if err != nil {
		logger.Error("import failed, rolled back", "error", err)
		s.fail(run, err, start)
		return
	}

	if err := rejects.WriteFile(s.rejectLogPath); err != nil {
		// The dataset is already committed; a failed side-channel write is
		// reported but does not undo the reset.
		logger.Warn("rejection log not written", "path", s.rejectLogPath, "error", err)
	}

	s.mu.Lock()
	s.storeName = doc.Store.Name
	s.currency = doc.Store.Currency
	run.Progress.Phase = PhaseComplete
	run.Result = &ResetResult{
		ResetID:   run.ID,
		StoreName: doc.Store.Name,
		Currency:  doc.Store.Currency,
		Counts:    counts,
		Rejected:  rejects.Len(),
		Duration:  time.Since(start),
	}
	s.mu.Unlock()

	logger.Info("reset complete",
		"books", counts.Books,
		"orders", counts.Orders,
		"payments", counts.Payments,
		"rejected", rejects.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// setPhase publishes a phase transition.
func (s *Service) setPhase(run *activeReset, phase ResetPhase) {
	s.mu.Lock()
	run.Progress.Phase = phase
	s.mu.Unlock()
}

// fail records a failed reset outcome.
func (s *Service) fail(run *activeReset, err error, start time.Time) {
	var dur time.Duration
	if !start.IsZero() {
		dur = time.Since(start)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.Result != nil {
		return
	}
	run.Progress.Phase = PhaseFailed
	run.Progress.Error = err.Error()
	run.Result = &ResetResult{
		ResetID:  run.ID,
		Duration: dur,
		Error:    err.Error(),
	}
}

// cleanup drops a finished reset from the map after the retention period.
func (s *Service) cleanup(id string, after time.Duration) {
	time.AfterFunc(after, func() {
		s.mu.Lock()
		delete(s.resets, id)
		s.mu.Unlock()
	})
}

// ResetProgress returns the current state of a reset without blocking.
func (s *Service) ResetProgress(id string) (ResetProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.resets[id]
	if !ok {
		return ResetProgress{}, ErrResetNotFound
	}
	return run.Progress, nil
}

// ResetResult blocks until the reset completes and returns its outcome.
func (s *Service) ResetResult(ctx context.Context, id string) (*ResetResult, error) {
	s.mu.RLock()
	run, ok := s.resets[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrResetNotFound
	}

	select {
	case <-run.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return run.Result, nil
}

// Meta returns the name and currency of the loaded snapshot. Both are empty
// before the first successful reset; they are not persisted.
func (s *Service) Meta() StoreMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreMeta{Name: s.storeName, Currency: s.currency}
}

// ListBooks returns the catalog, optionally filtered by title or author.
func (s *Service) ListBooks(ctx context.Context, search string) ([]store.BookRow, error) {
	return s.store.ListBooks(ctx, search)
}

// Restock adds amount units of stock to one book.
func (s *Service) Restock(ctx context.Context, isbn string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	n, err := s.store.Restock(ctx, isbn, amount)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrBookNotFound, isbn)
	}
	return nil
}

// ListOrders returns all orders with their derived payment status.
func (s *Service) ListOrders(ctx context.Context) ([]store.OrderRow, error) {
	return s.store.ListOrders(ctx)
}

// OrderItems returns the items of one order with computed subtotals.
func (s *Service) OrderItems(ctx context.Context, orderID string) ([]store.OrderItemRow, error) {
	return s.store.OrderItems(ctx, orderID)
}

// OrderTotal returns the sum of an order's item subtotals.
func (s *Service) OrderTotal(ctx context.Context, orderID string) (float64, error) {
	return s.store.OrderTotal(ctx, orderID)
}
