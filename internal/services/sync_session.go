package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/NikBulygin/financeTracker/internal/core"
	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/mirror"
	"github.com/NikBulygin/financeTracker/internal/storage"
	"github.com/NikBulygin/financeTracker/internal/table"
)

// SyncStatus is the sync loop's externally visible state.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// SyncSnapshot is a read-only view of the sync state for display, refreshed
// after every push and pull.
type SyncSnapshot struct {
	Status       SyncStatus
	LastSyncTime *time.Time
	Error        string
	RemoteFileID string
	WebViewLink  string
}

// SyncConfig tunes the reconciliation loop.
type SyncConfig struct {
	// PollInterval is how often local data is re-hashed for changes.
	PollInterval time.Duration
	// Debounce is the quiet period after a detected change before pushing.
	Debounce time.Duration
	// OpTimeout bounds each push or pull against the remote.
	OpTimeout time.Duration
}

// DefaultSyncConfig returns the intervals the loop was designed around.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval: 5 * time.Second,
		Debounce:     2 * time.Second,
		OpTimeout:    30 * time.Second,
	}
}

// SyncSession reconciles one identity's local table with the remote mirror:
// bootstrap pull on start, then hash-based change detection with a debounced
// push. All loop state lives in the session, so switching identity is
// stopping one session and starting another.
type SyncSession struct {
	identity string
	store    storage.TableStore
	remote   mirror.Storage
	cfg      SyncConfig
	logger   *log.Logger

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	inFlight   bool
	hashSeeded bool
	lastHash   uint64
	debounce   *time.Timer
	status     SyncSnapshot
}

func NewSyncSession(identity string, store storage.TableStore, remote mirror.Storage, cfg SyncConfig, logger *log.Logger) *SyncSession {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultSyncConfig().PollInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultSyncConfig().Debounce
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultSyncConfig().OpTimeout
	}
	return &SyncSession{
		identity: identity,
		store:    store,
		remote:   remote,
		cfg:      cfg,
		logger: logger.WithComponent(log.ComponentSync).
			With(log.FieldIdentity, identity),
		status: SyncSnapshot{Status: SyncIdle},
	}
}

// RemoteFileName is the mirror object name for an identity's table.
func RemoteFileName(identity string) string {
	return fmt.Sprintf("finance_data_%s.csv", strings.ReplaceAll(identity, "@", "_"))
}

// Start runs the bootstrap sequence and then the poll loop until Stop or
// context cancellation. It returns an error if the session already runs.
func (s *SyncSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sync session for %s is already running", s.identity)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)

	s.logger.InfoContext(ctx, "sync session started",
		"poll_interval", s.cfg.PollInterval,
		"debounce", s.cfg.Debounce)
	return nil
}

// Stop cancels any scheduled push and waits for the loop to exit.
func (s *SyncSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancelDebounceLocked()
	s.mu.Unlock()

	close(s.stopCh)
	select {
	case <-s.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "sync session stopped")
	return nil
}

// Status returns the current sync snapshot.
func (s *SyncSession) Status() SyncSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SyncSession) run(ctx context.Context) {
	defer close(s.doneCh)

	s.bootstrap(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkForChanges(ctx)
		}
	}
}

// bootstrap fetches the remote status; when a remote file exists it is
// pulled and the change hash seeded from the pulled data, otherwise the hash
// seeds from current local data without pulling.
func (s *SyncSession) bootstrap(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	fileID, err := s.store.RemoteFileID(opCtx, s.identity)
	if err != nil {
		s.setError(fmt.Errorf("read remote file reference: %w", err))
		return
	}
	if fileID == "" {
		info, err := s.remote.FindByName(opCtx, RemoteFileName(s.identity))
		if err != nil {
			s.setError(fmt.Errorf("find remote file: %w", err))
			return
		}
		if info != nil {
			fileID = info.ID
			if err := s.store.SetRemoteFileID(opCtx, s.identity, fileID); err != nil {
				s.setError(fmt.Errorf("record remote file reference: %w", err))
				return
			}
			s.mu.Lock()
			s.status.RemoteFileID = info.ID
			s.status.WebViewLink = info.WebViewLink
			s.mu.Unlock()
		}
	}

	if fileID != "" {
		s.pull(ctx, fileID)
		return
	}

	// No remote copy yet; seed the hash so only future edits trigger a push.
	s.seedFromLocal(opCtx)
}

// pull downloads the remote table, overwrites the local one, and seeds the
// change hash from the pulled content. A pull aborts any pending debounced
// push: the freshly pulled state is the new baseline.
func (s *SyncSession) pull(ctx context.Context, fileID string) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("pull dropped, sync already in flight")
		return
	}
	s.inFlight = true
	s.cancelDebounceLocked()
	s.status.Status = SyncSyncing
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	err := func() error {
		content, err := s.remote.Download(opCtx, fileID)
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		t, err := table.Unmarshal(content)
		if err != nil {
			return fmt.Errorf("parse remote table: %w", err)
		}
		t.EnsureHeaders(core.TransactionHeaders)
		if err := s.store.Save(opCtx, s.identity, t); err != nil {
			return fmt.Errorf("save pulled table: %w", err)
		}

		s.mu.Lock()
		s.lastHash = contentHash(t.Marshal())
		s.hashSeeded = true
		s.mu.Unlock()
		return nil
	}()

	s.finish(fileID, "", err)
	if err == nil {
		s.logger.InfoContext(ctx, "pulled remote table",
			log.FieldOperation, log.OpPull, log.FieldFileID, fileID)
	}
}

// checkForChanges recomputes the local content hash; a difference updates
// the seen hash immediately and (re)schedules a debounced push.
func (s *SyncSession) checkForChanges(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	t, err := s.store.Get(opCtx, s.identity, core.TransactionHeaders)
	if err != nil {
		s.logger.WarnContext(ctx, "change check failed", log.FieldError, err)
		return
	}
	h := contentHash(t.Marshal())

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hashSeeded {
		s.lastHash = h
		s.hashSeeded = true
		return
	}
	if h == s.lastHash {
		return
	}
	s.lastHash = h
	s.schedulePushLocked(ctx)
}

// schedulePushLocked arms the debounce timer, canceling a previously
// scheduled but not yet fired push. Caller holds s.mu.
func (s *SyncSession) schedulePushLocked(ctx context.Context) {
	s.cancelDebounceLocked()
	s.debounce = time.AfterFunc(s.cfg.Debounce, func() {
		s.push(ctx)
	})
}

func (s *SyncSession) cancelDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

// push serializes the full local table and uploads it, creating the remote
// object on first push and updating it in place afterwards. Last push wins.
func (s *SyncSession) push(ctx context.Context) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("push dropped, sync already in flight")
		return
	}
	s.inFlight = true
	s.status.Status = SyncSyncing
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OpTimeout)
	defer cancel()

	var info *mirror.FileInfo
	err := func() error {
		t, err := s.store.Get(opCtx, s.identity, core.TransactionHeaders)
		if err != nil {
			return fmt.Errorf("load table: %w", err)
		}
		existingID, err := s.store.RemoteFileID(opCtx, s.identity)
		if err != nil {
			return fmt.Errorf("read remote file reference: %w", err)
		}
		info, err = s.remote.Upload(opCtx, RemoteFileName(s.identity), t.Marshal(), existingID)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		if info.ID != existingID {
			if err := s.store.SetRemoteFileID(opCtx, s.identity, info.ID); err != nil {
				return fmt.Errorf("record remote file reference: %w", err)
			}
		}
		return nil
	}()

	fileID, webViewLink := "", ""
	if info != nil {
		fileID, webViewLink = info.ID, info.WebViewLink
	}
	s.finish(fileID, webViewLink, err)
	if err == nil {
		s.logger.InfoContext(ctx, "pushed local table",
			log.FieldOperation, log.OpPush, log.FieldFileID, fileID)
	}
}

// seedFromLocal initializes the change hash from the current local data.
func (s *SyncSession) seedFromLocal(ctx context.Context) {
	t, err := s.store.Get(ctx, s.identity, core.TransactionHeaders)
	if err != nil {
		s.setError(fmt.Errorf("seed change hash: %w", err))
		return
	}
	s.mu.Lock()
	s.lastHash = contentHash(t.Marshal())
	s.hashSeeded = true
	s.mu.Unlock()
}

// finish clears the in-flight guard and records the operation outcome. The
// loop keeps polling on its normal schedule regardless of the result.
func (s *SyncSession) finish(fileID, webViewLink string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		s.status.Status = SyncError
		s.status.Error = err.Error()
		s.logger.Error("sync operation failed", log.FieldError, err)
		return
	}
	now := time.Now()
	s.status.Status = SyncSuccess
	s.status.LastSyncTime = &now
	s.status.Error = ""
	if fileID != "" {
		s.status.RemoteFileID = fileID
	}
	if webViewLink != "" {
		s.status.WebViewLink = webViewLink
	}
}

func (s *SyncSession) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Status = SyncError
	s.status.Error = err.Error()
	s.logger.Error("sync bootstrap failed", log.FieldError, err)
}

func contentHash(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
