package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/source"
	"github.com/workforge/forgedesk/internal/store"
)

// SyncState represents the current state of the refresh loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of the last refresh pass.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a refresh pass completes.
type SyncResultMsg struct {
	Snapshot    *source.Snapshot
	NewMessages int
	Error       error
	AuthError   *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the token.
type AuthErrorMsg struct {
	Message string
}

// DefaultFetchTimeout bounds one refresh pass.
const DefaultFetchTimeout = 30 * time.Second

// Poller refreshes the local cache from the backend on an interval and
// on demand.
type Poller struct {
	store   store.Store
	backend source.Backend
	selfID  string

	interval time.Duration
	timeout  time.Duration

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	running   bool
	log       *logrus.Entry
}

// New creates a Poller that caches into s what b reports for selfID.
// A non-positive interval falls back to the default poll cadence.
func New(s store.Store, b source.Backend, selfID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = model.DefaultPollIntervalSec * time.Second
	}
	return &Poller{
		store:     s,
		backend:   b,
		selfID:    selfID,
		interval:  interval,
		timeout:   DefaultFetchTimeout,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		log:       logging.WithComponent("sync"),
	}
}

// SetTimeout overrides the per-pass fetch timeout.
func (p *Poller) SetTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that
// delivers the first SyncResultMsg.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop()

	return p.WaitForNextResult()
}

// Stop halts the polling goroutine and waits for an in-flight pass.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Refresh requests an immediate pass. Requests made while one is already
// pending are coalesced.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the state of the last pass.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// WaitForNextResult returns a tea.Cmd that blocks until the next pass
// completes. Call it again after handling each SyncResultMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pass()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pass()
		case <-p.triggerCh:
			p.pass()
		}
	}
}

func (p *Poller) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.sendResult(p.SyncOnce(ctx))
}

// SyncOnce fetches one snapshot and replaces the cached copy with it.
// NewMessages counts inbound messages absent from the previous cache;
// it is zero when the cache was empty.
func (p *Poller) SyncOnce(ctx context.Context) SyncResultMsg {
	p.setStatus(SyncRunning, nil)
	started := time.Now()

	snap, err := p.backend.Fetch(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.log.WithError(err).Warn("refresh failed")
		if source.IsAuthError(err) {
			return SyncResultMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: "Work Forge: authentication expired. Press 'c' to sign in again.",
				},
			}
		}
		return SyncResultMsg{Error: err}
	}

	known, err := p.store.GetMessageIDs(ctx)
	if err != nil {
		return p.fail(fmt.Errorf("reading cached message ids: %w", err))
	}

	newCount := 0
	if len(known) > 0 {
		for _, m := range snap.Messages {
			if m.RecipientID == p.selfID && !known[m.ID] {
				newCount++
			}
		}
	}

	if err := p.store.ReplaceMessages(ctx, snap.Messages); err != nil {
		return p.fail(fmt.Errorf("caching messages: %w", err))
	}
	if err := p.store.ReplaceEmployees(ctx, snap.Employees); err != nil {
		return p.fail(fmt.Errorf("caching roster: %w", err))
	}
	if err := p.store.ReplaceAnnouncements(ctx, snap.Announcements); err != nil {
		return p.fail(fmt.Errorf("caching announcements: %w", err))
	}

	p.setStatus(SyncIdle, nil)
	p.log.WithFields(logrus.Fields{
		"messages":      len(snap.Messages),
		"employees":     len(snap.Employees),
		"announcements": len(snap.Announcements),
		"new":           newCount,
		"elapsed_ms":    time.Since(started).Milliseconds(),
	}).Debug("refresh complete")

	return SyncResultMsg{Snapshot: snap, NewMessages: newCount}
}

func (p *Poller) fail(err error) SyncResultMsg {
	p.setStatus(SyncError, err)
	p.log.WithError(err).Error("refresh failed")
	return SyncResultMsg{Error: err}
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult delivers msg without blocking; results are dropped when
// nobody is listening.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}
