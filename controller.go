package treeboard

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Controller owns the client-visible dataset state and maps each user
// command to one backend call. All state mutation happens under mu, so
// commands may be issued from any goroutine.
type Controller struct {
	config      Config
	backend     Backend
	store       *Store
	metrics     *MetricsTracker
	modal       ModalSlot
	structure   StructureMode
	syncManager *SyncManager

	mu        sync.Mutex
	seq       uint64 // last issued view sequence number
	applied   uint64 // highest view sequence number applied
	structSeq uint64 // last issued structure fetch
	closed    bool
}

// ViewState is a consistent, read-only copy of everything the
// presentation layer renders.
type ViewState struct {
	Rows             []Row
	Columns          ColumnSet
	TotalRows        int
	ProcessingTimeMs int64
	Projection       ProjectionKind
	Metrics          Metrics
	Structure        StructureMode
	Modal            Modal
	Inline           string
	Version          uint64
	Pending          int
}

// New creates a controller over backend. A nil config uses DefaultConfig.
func New(backend Backend, config *Config) *Controller {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Controller{
		config:    config.withDefaults(),
		backend:   backend,
		store:     NewStore(),
		metrics:   NewMetricsTracker(),
		structure: StructureNone,
	}

	if c.config.SyncInterval > 0 {
		c.syncManager = NewSyncManager(c, c.config.SyncInterval)
		c.syncManager.Start()
	}

	return c
}

// Initialize performs the on-mount loads: table snapshot and structure mode
func (c *Controller) Initialize(ctx context.Context) error {
	err := c.Refresh(ctx)
	if serr := c.RefreshStructure(ctx); serr == ErrClosed {
		return serr
	}
	return err
}

// Refresh fetches the table and replaces the store. On failure the store
// is cleared and the user notified. Structure mode is left untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.loadBase(ctx, "refresh", false)
}

func (c *Controller) loadBase(ctx context.Context, op string, resetMetrics bool) error {
	seq, err := c.issue()
	if err != nil {
		return err
	}

	snap, err := c.fetchTable(ctx)

	c.mu.Lock()
	if !c.accept(seq, op) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.store.Clear()
		c.mu.Unlock()
		c.fail(op, err)
		return err
	}
	c.store.LoadSnapshot(snap)
	if resetMetrics {
		c.metrics.Reset()
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) fetchTable(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	snap, err := c.backend.FetchTable(ctx)
	if err == nil && snap == nil {
		err = ErrMissingData
	}
	return snap, err
}

// RefreshStructure mirrors the backend's structure mode. Any failure maps
// to StructureNone.
func (c *Controller) RefreshStructure(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.structSeq++
	seq := c.structSeq
	c.mu.Unlock()

	tctx, cancel := c.withTimeout(ctx)
	mode, err := c.backend.FetchStructure(tctx)
	cancel()
	if err != nil {
		c.log().WithError(err).Warn("structure mode unavailable")
		mode = StructureNone
	}
	if mode == "" {
		mode = StructureNone
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// a fetch issued later owns the mode
	if seq != c.structSeq {
		c.log().WithFields(logrus.Fields{"op": "structure", "seq": seq}).Debug("discarding superseded structure mode")
		return err
	}
	c.structure = mode
	return err
}

// reconcile replaces optimistic patches with a fresh snapshot. It only
// runs while no view command is pending and yields to any command issued
// before it settles; a failed fetch keeps the current rows.
func (c *Controller) reconcile(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.applied != c.seq || c.store.Pending() == 0 || c.store.Kind() != ProjectionBase {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	snap, err := c.fetchTable(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log().WithFields(logrus.Fields{"op": "reconcile", "seq": seq, "issued": c.seq}).Debug("reconcile yielded to a newer command")
		return nil
	}
	c.applied = seq
	if err != nil {
		return err
	}
	if c.store.Kind() == ProjectionBase {
		c.store.LoadSnapshot(snap)
	}
	return nil
}

// Search filters the view through the backend. A blank query restores the
// base snapshot and resets the metrics.
func (c *Controller) Search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return c.loadBase(ctx, "search", true)
	}

	seq, err := c.issue()
	if err != nil {
		return err
	}

	tctx, cancel := c.withTimeout(ctx)
	res, err := c.backend.Search(tctx, query)
	cancel()

	c.mu.Lock()
	if !c.accept(seq, "search") {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.fail("search", err)
		return err
	}
	c.store.ApplyFilter(res.Rows)
	c.metrics.RecordSearch(res.ProcessingTimeMs, res.SearchMethod)
	c.mu.Unlock()
	return nil
}

// Sort asks the backend for every row ordered by column
func (c *Controller) Sort(ctx context.Context, alg Algorithm, column string, dir Direction) error {
	if c.isClosed() {
		return ErrClosed
	}
	if !alg.IsSort() {
		return &ValidationError{Field: "algorithm", Message: fmt.Sprintf("%s is not a sort algorithm", alg)}
	}
	if dir != Ascending && dir != Descending {
		return &ValidationError{Field: "direction", Message: fmt.Sprintf("unknown direction %q", dir)}
	}
	if !c.store.Columns().Contains(column) {
		return &ValidationError{Field: "column", Message: fmt.Sprintf("unknown column %q", column)}
	}

	seq, err := c.issue()
	if err != nil {
		return err
	}

	tctx, cancel := c.withTimeout(ctx)
	res, err := c.backend.Sort(tctx, alg, column, dir)
	cancel()

	c.mu.Lock()
	if !c.accept(seq, "sort") {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.fail("sort", err)
		return err
	}
	c.store.ApplySortResult(res.Rows)
	c.metrics.RecordSort(alg, res.ProcessingTimeMs)
	c.mu.Unlock()
	return nil
}

// Add creates a row from one value per column. The modal closes once the
// remote call settles, whatever its outcome.
func (c *Controller) Add(ctx context.Context, values map[string]interface{}) error {
	if c.isClosed() {
		return ErrClosed
	}

	required := c.store.Columns()
	if len(required) == 0 {
		required = ColumnSet{c.config.KeyField}
	}
	for _, col := range required {
		v, ok := values[col]
		if !ok || v == nil || strings.TrimSpace(fmt.Sprintf("%v", v)) == "" {
			verr := &ValidationError{Field: col, Message: "a value is required"}
			c.modal.SetInline(verr.Error())
			return verr
		}
	}

	row := NewRow(values, c.config.KeyField)

	tctx, cancel := c.withTimeout(ctx)
	err := c.backend.AddRow(tctx, row)
	cancel()

	c.modal.Close()
	if err != nil {
		c.log().WithError(err).WithField("key", row.Key).Error("add row failed")
		c.fail("add", err)
		return err
	}

	c.mu.Lock()
	c.store.PatchAdd(row)
	c.mu.Unlock()
	return nil
}

// Delete removes the row addressed by key. Keys not present in the loaded
// rows are rejected before any remote call and the modal stays open.
func (c *Controller) Delete(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrClosed
	}

	key = strings.TrimSpace(key)
	if key == "" {
		verr := &ValidationError{Field: c.config.KeyField, Message: "Please enter the key of the item to delete."}
		c.modal.SetInline(verr.Message)
		return verr
	}
	if !c.store.Has(key) {
		verr := &ValidationError{Field: c.config.KeyField, Message: "Item not found. Please check the key and try again.", Err: ErrKeyNotFound}
		c.modal.SetInline(verr.Message)
		return verr
	}

	tctx, cancel := c.withTimeout(ctx)
	err := c.backend.DeleteRow(tctx, key)
	cancel()

	c.modal.Close()
	if err != nil {
		c.fail("delete", err)
		return err
	}

	c.mu.Lock()
	c.store.PatchDelete(key)
	c.mu.Unlock()
	return nil
}

// Convert switches the backend structure. The current snapshot stays
// visible until the post-conversion refresh succeeds; if that refresh
// fails the current snapshot is kept. The modal closes regardless.
func (c *Controller) Convert(ctx context.Context, target StructureMode) error {
	if c.isClosed() {
		return ErrClosed
	}
	if _, err := ParseStructureMode(string(target)); err != nil {
		verr := &ValidationError{Field: "targetTree", Message: "Please select a tree type."}
		c.modal.SetInline(verr.Message)
		return verr
	}
	defer c.modal.Close()

	tctx, cancel := c.withTimeout(ctx)
	msg, err := c.backend.Convert(tctx, target)
	cancel()
	if err != nil {
		c.fail("convert", err)
		return err
	}
	c.notify(NoticeInfo, "convert", "Conversion successful: "+msg)

	seq, err := c.issue()
	if err != nil {
		return err
	}
	snap, ferr := c.fetchTable(ctx)

	c.mu.Lock()
	applied := c.accept(seq, "convert")
	if applied && ferr == nil {
		c.store.LoadSnapshot(snap)
	}
	c.mu.Unlock()
	if applied && ferr != nil {
		c.log().WithError(ferr).WithField("target", target).Warn("keeping previous snapshot after conversion")
		c.fail("convert", ferr)
	}

	_ = c.RefreshStructure(ctx)
	return ferr
}

// Upload imports a CSV dataset and refreshes on success. A missing file
// is rejected inline; any remote outcome closes the modal.
func (c *Controller) Upload(ctx context.Context, filename string, r io.Reader) error {
	if c.isClosed() {
		return ErrClosed
	}
	if r == nil || strings.TrimSpace(filename) == "" {
		verr := &ValidationError{Field: "file", Message: "Please select a CSV file.", Err: ErrEmptyUpload}
		c.modal.SetInline(verr.Message)
		return verr
	}
	defer c.modal.Close()

	tctx, cancel := c.withTimeout(ctx)
	msg, err := c.backend.Import(tctx, filename, r)
	cancel()
	if err != nil {
		c.fail("upload", err)
		return err
	}
	c.notify(NoticeInfo, "upload", "Upload successful: "+msg)

	return c.Refresh(ctx)
}

// OpenModal shows m, closing any other overlay
func (c *Controller) OpenModal(m Modal) {
	c.modal.Open(m)
}

// CloseModal hides the open overlay (cancel)
func (c *Controller) CloseModal() {
	c.modal.Close()
}

// State returns a consistent copy of the view state
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ViewState{
		Rows:             c.store.View(),
		Columns:          c.store.Columns(),
		TotalRows:        c.store.Size(),
		ProcessingTimeMs: c.store.ProcessingTimeMs(),
		Projection:       c.store.Kind(),
		Metrics:          c.metrics.Get(),
		Structure:        c.structure,
		Modal:            c.modal.Current(),
		Inline:           c.modal.Inline(),
		Version:          c.store.Version(),
		Pending:          c.store.Pending(),
	}
}

// Close stops the background sync; later commands return ErrClosed
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true
	syncManager := c.syncManager
	c.syncManager = nil
	c.mu.Unlock()

	// Stop the sync manager without holding the mutex
	if syncManager != nil {
		syncManager.Stop()
	}
	return nil
}

// issue hands out the next view sequence number
func (c *Controller) issue() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	c.seq++
	return c.seq, nil
}

// accept reports whether a settled result tagged seq is the newest issued
// so far; stale results are dropped. Caller holds mu.
func (c *Controller) accept(seq uint64, op string) bool {
	if seq <= c.applied {
		c.log().WithFields(logrus.Fields{"op": op, "seq": seq, "applied": c.applied}).Debug("discarding superseded result")
		return false
	}
	c.applied = seq
	return true
}

func (c *Controller) fail(op string, err error) {
	c.notify(NoticeError, op, err.Error())
}

func (c *Controller) notify(level NoticeLevel, op, msg string) {
	c.config.Notifier.Notify(Notice{Level: level, Op: op, Message: msg})
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Controller) log() logrus.FieldLogger {
	return c.config.Logger
}

// SyncManager periodically mirrors the structure mode and reconciles
// optimistic add/delete patches with a full refresh.
type SyncManager struct {
	controller *Controller
	interval   time.Duration
	ticker     *time.Ticker
	done       chan bool
	syncMutex  sync.Mutex
	wg         sync.WaitGroup
}

// NewSyncManager creates a new sync manager
func NewSyncManager(controller *Controller, interval time.Duration) *SyncManager {
	return &SyncManager{
		controller: controller,
		interval:   interval,
		done:       make(chan bool),
	}
}

// Start begins the periodic sync process
func (sm *SyncManager) Start() {
	sm.ticker = time.NewTicker(sm.interval)
	sm.wg.Add(1)

	go func() {
		defer sm.wg.Done()

		for {
			select {
			case <-sm.ticker.C:
				sm.performSync()
			case <-sm.done:
				return
			}
		}
	}()
}

// performSync runs one cycle, skipping it if the previous one still runs
func (sm *SyncManager) performSync() {
	if !sm.syncMutex.TryLock() {
		return
	}
	defer sm.syncMutex.Unlock()

	ctx := context.Background()
	c := sm.controller
	_ = c.RefreshStructure(ctx)

	if err := c.reconcile(ctx); err != nil && err != ErrClosed {
		c.log().WithError(err).Warn("reconcile refresh failed")
	}
}

// Stop stops the sync manager and waits for an ongoing cycle
func (sm *SyncManager) Stop() {
	if sm.ticker != nil {
		sm.ticker.Stop()
	}

	close(sm.done)

	sm.wg.Wait()

	sm.syncMutex.Lock()
	sm.syncMutex.Unlock()
}
