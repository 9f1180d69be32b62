package usecase

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"typeindex/config"
	"typeindex/internal/adapter/store"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

// Indexer writes and removes vectors. SearchService implements it.
type Indexer interface {
	IndexSemanticType(t domain.SemanticType) error
	IndexSemanticTypes(types []domain.SemanticType, strict bool, onIndexed func(domain.SemanticType)) (int, error)
	RemoveFromIndex(semanticType string) (bool, error)
	ClearIndex() (int, error)
	StoredVectorCount() (int, error)
}

// Initializer prepares the embedding provider for use.
type Initializer interface {
	Initialize() error
	Ready() bool
	ModelID() string
}

// CredentialsChecker reports whether provider credentials are present.
type CredentialsChecker interface {
	Available() bool
}

// DriftChecker detects vectors produced by a different model or config.
type DriftChecker interface {
	CheckDrift(modelID string) (store.DriftResult, error)
	RecordManifest(modelID string) error
}

// PassLocker excludes full passes across processes. *flock.Flock satisfies it.
type PassLocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// LifecycleManager keeps the vector index consistent with the type catalog.
// It owns the index state and progress counters.
type LifecycleManager struct {
	cfg     config.IndexConfig
	indexer Indexer
	catalog port.TypeCatalog
	gateway Initializer
	creds   CredentialsChecker
	drift   DriftChecker
	locker  PassLocker
	logger  *logging.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	// mu also guards drift and locker, which are set after a backend opens.
	mu         sync.Mutex
	state      domain.IndexState
	indexing   bool
	total      int
	indexed    int
	onProgress func(indexed, total int)
}

// NewLifecycleManager creates a new lifecycle manager.
func NewLifecycleManager(
	cfg config.IndexConfig,
	indexer Indexer,
	catalog port.TypeCatalog,
	gateway Initializer,
	creds CredentialsChecker,
	logger *logging.Logger,
) *LifecycleManager {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	state := domain.StateUninitialized
	if !cfg.Enabled {
		state = domain.StateDisabled
	}
	return &LifecycleManager{
		cfg:     cfg,
		indexer: indexer,
		catalog: catalog,
		gateway: gateway,
		creds:   creds,
		logger:  logger,
		state:   state,
	}
}

// SetDriftChecker enables model/config drift detection on startup passes.
func (m *LifecycleManager) SetDriftChecker(d DriftChecker) {
	m.mu.Lock()
	m.drift = d
	m.mu.Unlock()
}

// SetPassLocker makes full passes take a cross-process lock.
func (m *LifecycleManager) SetPassLocker(l PassLocker) {
	m.mu.Lock()
	m.locker = l
	m.mu.Unlock()
}

func (m *LifecycleManager) collaborators() (DriftChecker, PassLocker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drift, m.locker
}

// OnProgress registers a hook called whenever the counters change.
func (m *LifecycleManager) OnProgress(fn func(indexed, total int)) {
	m.mu.Lock()
	m.onProgress = fn
	m.mu.Unlock()
}

// OnConnected reacts to credentials becoming available. It returns at once;
// reconciliation runs in the background. A trigger arriving while a pass is
// running is dropped.
func (m *LifecycleManager) OnConnected() {
	if !m.cfg.Enabled {
		m.logger.Debug("vector indexing disabled, ignoring connect")
		return
	}
	if m.creds != nil && !m.creds.Available() {
		m.logger.Info("credentials not available, skipping vector indexing")
		return
	}
	if err := m.gateway.Initialize(); err != nil {
		m.logger.Error("failed to initialize embedding provider: %v", err)
		return
	}
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Warn("indexing pass already running, trigger dropped")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.running.Store(false)
		m.reconcile(newPassID())
	}()
}

// Wait blocks until any background pass has finished.
func (m *LifecycleManager) Wait() {
	m.wg.Wait()
}

func newPassID() string {
	return uuid.NewString()[:8]
}

func (m *LifecycleManager) reconcile(passID string) {
	unlock, ok := m.acquirePassLock(passID)
	if !ok {
		return
	}
	defer unlock()

	count, err := m.indexer.StoredVectorCount()
	if err != nil {
		m.logger.Error("[pass %s] failed to count stored vectors: %v", passID, err)
		m.setState(domain.StateReadyWithErrors)
		return
	}

	var passErr error
	switch {
	case count == 0:
		m.logger.Info("[pass %s] vector store empty, indexing catalog", passID)
		passErr = m.indexCatalog(passID, false, false)

	case m.cfg.RebuildOnStartup:
		m.logger.Info("[pass %s] rebuild on startup configured, clearing %d vectors", passID, count)
		passErr = m.indexCatalog(passID, true, false)

	case m.driftDetected(passID):
		passErr = m.indexCatalog(passID, true, false)

	case count >= m.cfg.MinExpectedIndexed:
		m.logger.Info("[pass %s] vector store already holds %d vectors, skipping", passID, count)
		m.mu.Lock()
		m.total = count
		m.indexed = count
		m.state = domain.StateReady
		m.mu.Unlock()
		return

	default:
		m.logger.Info("[pass %s] vector store holds %d vectors (expected at least %d), reconciling", passID, count, m.cfg.MinExpectedIndexed)
		passErr = m.indexCatalog(passID, false, false)
	}

	if passErr != nil {
		m.logger.Error("[pass %s] background indexing failed: %v", passID, passErr)
	}
}

func (m *LifecycleManager) driftDetected(passID string) bool {
	drift, _ := m.collaborators()
	if drift == nil {
		return false
	}
	res, err := drift.CheckDrift(m.gateway.ModelID())
	if err != nil {
		m.logger.Warn("[pass %s] drift check failed: %v", passID, err)
		return false
	}
	if res.NeedsRebuild {
		m.logger.Info("[pass %s] rebuilding index: %s", passID, res.Reason)
	}
	return res.NeedsRebuild
}

func (m *LifecycleManager) acquirePassLock(passID string) (func(), bool) {
	_, locker := m.collaborators()
	if locker == nil {
		return func() {}, true
	}
	locked, err := locker.TryLock()
	if err != nil {
		m.logger.Error("[pass %s] failed to acquire index lock: %v", passID, err)
		return nil, false
	}
	if !locked {
		m.logger.Warn("[pass %s] another process is indexing, skipping", passID)
		return nil, false
	}
	return func() {
		if err := locker.Unlock(); err != nil {
			m.logger.Warn("[pass %s] failed to release index lock: %v", passID, err)
		}
	}, true
}

// indexCatalog runs one full-catalog pass, optionally clearing first.
func (m *LifecycleManager) indexCatalog(passID string, clear, strict bool) error {
	m.beginPass()
	failed := true
	defer func() { m.endPass(failed) }()

	types, err := m.catalog.ListTypes()
	if err != nil {
		return fmt.Errorf("failed to list catalog: %w", err)
	}

	if clear {
		removed, err := m.indexer.ClearIndex()
		if err != nil {
			return err
		}
		m.logger.Info("[pass %s] cleared %d vectors", passID, removed)
	}

	m.setTotal(len(types))
	indexed, err := m.indexer.IndexSemanticTypes(types, strict, func(domain.SemanticType) {
		m.markIndexed()
	})
	if err != nil {
		return err
	}

	failed = indexed < len(types)
	m.logger.Info("[pass %s] indexed %d/%d types", passID, indexed, len(types))

	if drift, _ := m.collaborators(); drift != nil {
		if err := drift.RecordManifest(m.gateway.ModelID()); err != nil {
			m.logger.Warn("[pass %s] failed to record index manifest: %v", passID, err)
		}
	}
	return nil
}

// ReindexOne indexes a single added or updated type. Failures are logged.
func (m *LifecycleManager) ReindexOne(t *domain.SemanticType) {
	if t == nil || !m.cfg.Enabled {
		return
	}
	if err := m.indexer.IndexSemanticType(*t); err != nil {
		m.logger.Error("failed to index type %s: %v", t.SemanticType, err)
		return
	}
	m.logger.Debug("indexed type %s", t.SemanticType)
}

// RemoveOne drops a removed type from the index. Failures are logged.
func (m *LifecycleManager) RemoveOne(semanticType string) {
	if !m.cfg.Enabled {
		return
	}
	existed, err := m.indexer.RemoveFromIndex(semanticType)
	if err != nil {
		m.logger.Error("failed to remove type %s from index: %v", semanticType, err)
		return
	}
	if !existed {
		m.logger.Debug("type %s was not indexed", semanticType)
	}
}

// RebuildIndex clears the index and indexes the whole catalog synchronously.
// Any failure aborts the rebuild and is returned.
func (m *LifecycleManager) RebuildIndex() error {
	if !m.cfg.Enabled {
		return domain.ErrIndexingDisabled
	}
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", domain.ErrRebuildFailed, domain.ErrPassInProgress)
	}
	defer m.running.Store(false)

	passID := newPassID()
	unlock, ok := m.acquirePassLock(passID)
	if !ok {
		return fmt.Errorf("%w: %w", domain.ErrRebuildFailed, domain.ErrPassInProgress)
	}
	defer unlock()

	// Clearing first would leave an empty index behind an unreachable provider.
	if !m.gateway.Ready() {
		return fmt.Errorf("%w: %w", domain.ErrRebuildFailed, domain.ErrEmbeddingUnavailable)
	}

	m.logger.Info("[pass %s] rebuilding vector index", passID)
	if err := m.indexCatalog(passID, true, true); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRebuildFailed, err)
	}
	return nil
}

// Progress returns a snapshot of the counters.
func (m *LifecycleManager) Progress() domain.IndexingProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.IndexingProgress{
		Indexing: m.indexing,
		Total:    m.total,
		Indexed:  m.indexed,
		State:    m.state,
	}
}

func (m *LifecycleManager) State() domain.IndexState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *LifecycleManager) setState(s domain.IndexState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *LifecycleManager) beginPass() {
	m.mu.Lock()
	m.indexing = true
	m.indexed = 0
	m.state = domain.StateIndexing
	m.mu.Unlock()
}

func (m *LifecycleManager) endPass(failed bool) {
	m.mu.Lock()
	m.indexing = false
	if failed {
		m.state = domain.StateReadyWithErrors
	} else {
		m.state = domain.StateReady
	}
	m.mu.Unlock()
}

func (m *LifecycleManager) setTotal(total int) {
	m.mu.Lock()
	m.total = total
	indexed, hook := m.indexed, m.onProgress
	m.mu.Unlock()
	if hook != nil {
		hook(indexed, total)
	}
}

func (m *LifecycleManager) markIndexed() {
	m.mu.Lock()
	m.indexed++
	indexed, total, hook := m.indexed, m.total, m.onProgress
	m.mu.Unlock()
	if hook != nil {
		hook(indexed, total)
	}
}
