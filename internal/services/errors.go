package services

import (
	"context"
	"errors"

	apierrors "fincast/internal/errors"
	"fincast/internal/modelrunner"
)

// mapRunnerError translates model-runner client failures into API errors:
// an unconfigured runner is 503, transport failures and upstream errors are
// 502. Context cancellation passes through so the error handler can render
// a timeout.
func mapRunnerError(err error) error {
	if errors.Is(err, modelrunner.ErrNotConfigured) {
		return apierrors.ErrModelRunnerNotConfigured
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apierrors.ModelRunnerUnavailable(err)
}
