package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type VersionSource interface {
	ListAllPublished(ctx context.Context) ([]entity.RateProgramVersion, error)
}

type HashVerifier interface {
	VerifyStepsHash(ctx context.Context, versionID string) (bool, error)
}

// DriftEvent signals that a published version's steps no longer match the
// hash frozen at publish time.
type DriftEvent struct {
	ProgramID     string
	VersionID     string
	VersionNumber int
	ExpectedHash  string
}

// DriftMonitor periodically re-hashes every published version's step set.
// Published steps are logically immutable, but no storage-level lock enforces
// that; the monitor turns out-of-band edits into explicit events.
type DriftMonitor struct {
	versions VersionSource
	verifier HashVerifier
	events   chan<- DriftEvent

	scanInterval time.Duration

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewDriftMonitor(
	versions VersionSource,
	verifier HashVerifier,
	events chan<- DriftEvent,
) *DriftMonitor {
	return &DriftMonitor{
		versions:     versions,
		verifier:     verifier,
		events:       events,
		scanInterval: 15 * time.Minute,
	}
}

func (w *DriftMonitor) WithInterval(interval time.Duration) *DriftMonitor {
	if interval > 0 {
		w.scanInterval = interval
	}
	return w
}

func (w *DriftMonitor) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("drift monitor is already running")
	}

	scanCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(scanCtx).Error("drift monitor stopped", "error", err)
		}
	}()

	return nil
}

func (w *DriftMonitor) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *DriftMonitor) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *DriftMonitor) Run(ctx context.Context) error {
	logger(ctx).Info("drift monitor started", "interval", w.scanInterval.String())

	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("drift monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			w.scanAll(ctx)
		}
	}
}

func (w *DriftMonitor) scanAll(ctx context.Context) {
	published, err := w.versions.ListAllPublished(ctx)
	if err != nil {
		logger(ctx).Error("failed to list published versions", "error", err)
		return
	}

	var drifted int

	for _, version := range published {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ok, err := w.verifier.VerifyStepsHash(ctx, version.ID)
		if err != nil {
			logger(ctx).Error("hash check failed",
				"version_id", version.ID, "program_id", version.ProgramID, "error", err)
			continue
		}

		if ok {
			continue
		}

		drifted++

		logger(ctx).Error("steps hash drift detected",
			"version_id", version.ID,
			"program_id", version.ProgramID,
			"version_number", version.VersionNumber,
		)

		event := DriftEvent{
			ProgramID:     version.ProgramID,
			VersionID:     version.ID,
			VersionNumber: version.VersionNumber,
			ExpectedHash:  version.StepsHash,
		}

		select {
		case w.events <- event:
		case <-ctx.Done():
			return
		}
	}

	if drifted == 0 {
		logger(ctx).Debug("drift scan completed", "checked", len(published))
	}
}
