package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/internal/domain"

	"go.uber.org/zap"
)

// Manager validates, uploads and releases images for domain records
type Manager struct {
	store   Store
	logger  *zap.Logger
	timeout time.Duration
}

// NewManager creates a Manager. A zero timeout leaves store calls bounded
// only by the caller's context.
func NewManager(store Store, logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// Validate checks every file against p without touching the store
func (m *Manager) Validate(p Policy, files ...File) error {
	for _, f := range files {
		if err := p.Check(f); err != nil {
			return err
		}
	}
	return nil
}

// Accept validates f and uploads it under p's folder
func (m *Manager) Accept(ctx context.Context, p Policy, f File) (domain.MediaRef, error) {
	if err := p.Check(f); err != nil {
		return domain.MediaRef{}, err
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	ref, err := m.store.Upload(ctx, f, p.options(f))
	if err != nil {
		m.logger.Error("Media upload failed",
			zap.String("folder", p.Folder),
			zap.String("filename", f.Filename),
			zap.Error(err),
		)
		return domain.MediaRef{}, domain.Upstream("failed to upload image", err)
	}

	m.logger.Debug("Media uploaded",
		zap.String("folder", p.Folder),
		zap.String("public_id", ref.PublicID),
	)
	return ref, nil
}

// AcceptAll validates every file before uploading any of them, then uploads
// them in order. If an upload fails the files already accepted in this call
// are released and the upload error is returned.
func (m *Manager) AcceptAll(ctx context.Context, p Policy, files []File) ([]domain.MediaRef, error) {
	if err := m.Validate(p, files...); err != nil {
		return nil, err
	}

	refs := make([]domain.MediaRef, 0, len(files))
	for _, f := range files {
		ref, err := m.Accept(ctx, p, f)
		if err != nil {
			m.Compensate(ctx, refs, err)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ReleaseFailure is one reference the store failed to delete
type ReleaseFailure struct {
	Ref domain.MediaRef
	Err error
}

// ReleaseResult reports the outcome of Release per reference
type ReleaseResult struct {
	Released []domain.MediaRef
	Failed   []ReleaseFailure
}

// Err joins the individual failures, or returns nil
func (r ReleaseResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Ref.DeleteID(), f.Err))
	}
	return errors.Join(errs...)
}

// Release deletes each reference independently. It keeps going after a
// failure and runs even when ctx has been cancelled, so cleanup is not
// skipped when the client goes away.
func (m *Manager) Release(ctx context.Context, refs ...domain.MediaRef) ReleaseResult {
	var result ReleaseResult
	if len(refs) == 0 {
		return result
	}

	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		id := ref.DeleteID()
		if id == "" {
			result.Failed = append(result.Failed, ReleaseFailure{Ref: ref, Err: errors.New("media: reference has no identifier")})
			continue
		}

		callCtx, cancel := m.withTimeout(ctx)
		err := m.store.Delete(callCtx, id)
		cancel()

		if err != nil {
			result.Failed = append(result.Failed, ReleaseFailure{Ref: ref, Err: err})
			continue
		}
		result.Released = append(result.Released, ref)
	}
	return result
}

// Compensate releases refs after cause made the surrounding operation fail.
// Failures are logged and otherwise dropped.
func (m *Manager) Compensate(ctx context.Context, refs []domain.MediaRef, cause error) {
	if len(refs) == 0 {
		return
	}
	m.logFailures("Compensating media delete failed", m.Release(ctx, refs...), zap.NamedError("cause", cause))
}

// Cleanup releases refs left behind by a completed mutation, logging any
// failure
func (m *Manager) Cleanup(ctx context.Context, refs ...domain.MediaRef) ReleaseResult {
	result := m.Release(ctx, refs...)
	m.logFailures("Orphaned media left in store", result)
	return result
}

func (m *Manager) logFailures(msg string, result ReleaseResult, fields ...zap.Field) {
	for _, f := range result.Failed {
		m.logger.Warn(msg, append([]zap.Field{
			zap.String("public_id", f.Ref.DeleteID()),
			zap.String("url", f.Ref.URL),
			zap.Error(f.Err),
		}, fields...)...)
	}
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}
