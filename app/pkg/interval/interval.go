// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package interval parses human-readable interval strings into durations.
package interval

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNonParsable reports an interval string the grammar does not accept.
var ErrNonParsable = errors.New("non-parsable interval")

// unitDurations maps singular unit words to their millisecond lengths.
var unitDurations = map[string]time.Duration{
	"millisecond": time.Millisecond,
	"second":      time.Second,
	"minute":      time.Minute,
	"hour":        time.Hour,
	"day":         24 * time.Hour,
	"week":        7 * 24 * time.Hour,
	"month":       30 * 24 * time.Hour,
	"year":        365 * 24 * time.Hour,
}

// wordCounts maps spelled-out counts to their numeric values.
var wordCounts = map[string]float64{
	"a": 1, "an": 1,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Parse converts a human interval string into a positive duration.
//
// Parameters:
//   - s: interval text such as "one minute", "30 seconds" or "2.5 minutes".
//
// Returns:
//   - time.Duration: parsed interval, always positive.
//   - error: ErrNonParsable when the grammar rejects the input.
//
// Behavior:
//   - Accepts an optional count (integer, decimal, or the words a/an and
//     one through ten) followed by a unit word, pluralized or not.
//   - A bare unit word counts as one ("minute" is one minute).
//   - Rejects non-positive counts and any unknown token.
func Parse(s string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))

	var countText, unitText string

	switch len(fields) {
	case 1:
		countText, unitText = "1", fields[0]
	case 2:
		countText, unitText = fields[0], fields[1]
	default:
		return 0, errors.Wrapf(ErrNonParsable, "%q", s)
	}

	count, ok := wordCounts[countText]
	if !ok {
		// Only digits and a decimal point form a numeric count.
		if strings.Trim(countText, "0123456789.") != "" {
			return 0, errors.Wrapf(ErrNonParsable, "%q", s)
		}

		var err error
		count, err = strconv.ParseFloat(countText, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrNonParsable, "%q", s)
		}
	}

	unit, ok := unitDurations[strings.TrimSuffix(unitText, "s")]
	if !ok {
		return 0, errors.Wrapf(ErrNonParsable, "%q", s)
	}

	d := time.Duration(count * float64(unit))
	if d < time.Millisecond {
		return 0, errors.Wrapf(ErrNonParsable, "%q", s)
	}

	// Clip sub-millisecond remainders, the store works in milliseconds.
	return d.Truncate(time.Millisecond), nil
}
