// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"github.com/pkg/errors"
	"github.com/seakee/momo/app/pkg/interval"
)

var (
	// ErrJobNotFound reports a job definition absent from the store or the
	// local scheduler set.
	ErrJobNotFound = errors.New("job not found")

	// ErrNonParsableInterval reports an interval string the grammar rejects.
	// Raised from DefineJob and Start, a malformed definition is a
	// programmer error.
	ErrNonParsableInterval = interval.ErrNonParsable

	// ErrInvalidConcurrency reports a negative per-tick concurrency.
	ErrInvalidConcurrency = errors.New("concurrency must be positive")

	// ErrInvalidMaxRunning reports a negative cluster-wide cap.
	ErrInvalidMaxRunning = errors.New("maxRunning must not be negative")

	// ErrMissingHandler reports a definition without a callable handler.
	ErrMissingHandler = errors.New("job handler must not be nil")
)
