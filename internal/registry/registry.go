// ABOUTME: Application registry, submit and the approve/reject lifecycle.
// ABOUTME: Terminal transitions are settled by a conditional store update.

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/club-relay/internal/store"
)

var (
	// ErrEmptyApplication is returned when submitting with no files.
	ErrEmptyApplication = errors.New("application has no files")
	// ErrAlreadyPending is returned when the user already has an
	// application under review.
	ErrAlreadyPending = errors.New("application already pending")
	// ErrInvalidTransition is returned when approving or rejecting an
	// application that is not in the submitted state.
	ErrInvalidTransition = errors.New("application not in submitted state")
)

// Notifier delivers lifecycle outcomes to the applicant. The relay
// implements it; registry stays ignorant of chat mechanics.
type Notifier interface {
	ApplicationApproved(ctx context.Context, userID int64, note string) error
	ApplicationRejected(ctx context.Context, userID int64, note string) error
	MoreFilesRequested(ctx context.Context, userID int64) error
}

// Registry owns submitted applications. An application is an immutable
// snapshot of a draft; only its status and admin note ever change, and
// only once, from submitted to a terminal state.
type Registry struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

func New(s store.Store, n Notifier, logger *slog.Logger) *Registry {
	return &Registry{
		store:    s,
		notifier: n,
		logger:   logger.With("component", "registry"),
	}
}

// Submit snapshots files into a new submitted application and marks the
// user pending. This is the only path that sets the pending status.
func (r *Registry) Submit(ctx context.Context, userID int64, files []store.FileRef) (*store.Application, error) {
	if len(files) == 0 {
		return nil, ErrEmptyApplication
	}

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.ApplicationStatus == store.AppStatusPending {
		return nil, ErrAlreadyPending
	}

	app := &store.Application{
		ID:          uuid.New().String(),
		UserID:      userID,
		Files:       append([]store.FileRef(nil), files...),
		Status:      store.ApplicationSubmitted,
		SubmittedAt: time.Now(),
	}
	if err := r.store.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	if err := r.store.SetApplicationStatus(ctx, userID, store.AppStatusPending); err != nil {
		return nil, fmt.Errorf("mark user pending: %w", err)
	}

	r.logger.Info("application submitted",
		"app_id", app.ID,
		"user_id", userID,
		"files", len(files))
	return app, nil
}

// Approve moves a submitted application to approved, mirrors the status
// on the user, and notifies them. Any state other than submitted fails
// with ErrInvalidTransition, including a second approve.
func (r *Registry) Approve(ctx context.Context, appID, note string) (*store.Application, error) {
	return r.finalize(ctx, appID, store.ApplicationApproved, note)
}

// Reject is the symmetric terminal transition.
func (r *Registry) Reject(ctx context.Context, appID, note string) (*store.Application, error) {
	return r.finalize(ctx, appID, store.ApplicationRejected, note)
}

func (r *Registry) finalize(ctx context.Context, appID, status, note string) (*store.Application, error) {
	// The conditional update settles races between concurrent admin
	// actions: exactly one wins, the rest see zero rows.
	rows, err := r.store.FinalizeApplication(ctx, appID, status, time.Now(), note)
	if err != nil {
		return nil, fmt.Errorf("finalize application %s: %w", appID, err)
	}

	app, err := r.store.GetApplication(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load application %s: %w", appID, err)
	}
	if rows == 0 {
		// The row exists but the conditional update missed it, so it
		// was already finalized by an earlier verdict.
		return nil, fmt.Errorf("application %s: %w", appID, ErrInvalidTransition)
	}

	userStatus := store.AppStatusApproved
	if status == store.ApplicationRejected {
		userStatus = store.AppStatusRejected
	}
	if err := r.store.SetApplicationStatus(ctx, app.UserID, userStatus); err != nil {
		return nil, fmt.Errorf("mirror status on user %d: %w", app.UserID, err)
	}

	r.logger.Info("application finalized",
		"app_id", appID,
		"status", status,
		"user_id", app.UserID)

	if err := r.notify(ctx, app.UserID, status, note); err != nil {
		// The transition already happened; a failed notification must
		// not roll it back or report failure to the admin path.
		r.logger.Warn("applicant notification failed",
			"app_id", appID,
			"user_id", app.UserID,
			"error", err)
	}
	return app, nil
}

func (r *Registry) notify(ctx context.Context, userID int64, status, note string) error {
	switch status {
	case store.ApplicationApproved:
		return r.notifier.ApplicationApproved(ctx, userID, note)
	case store.ApplicationRejected:
		return r.notifier.ApplicationRejected(ctx, userID, note)
	}
	return nil
}

// RequestMore asks the applicant for additional files. It never changes
// application state and may be invoked any number of times.
func (r *Registry) RequestMore(ctx context.Context, appID string) (*store.Application, error) {
	app, err := r.store.GetApplication(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load application %s: %w", appID, err)
	}

	if err := r.notifier.MoreFilesRequested(ctx, app.UserID); err != nil {
		return nil, fmt.Errorf("notify user %d: %w", app.UserID, err)
	}
	r.logger.Info("more files requested", "app_id", appID, "user_id", app.UserID)
	return app, nil
}

// Get loads one application by id.
func (r *Registry) Get(ctx context.Context, appID string) (*store.Application, error) {
	return r.store.GetApplication(ctx, appID)
}
