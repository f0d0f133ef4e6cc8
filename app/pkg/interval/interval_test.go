// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package interval

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Accepted verifies the accepted grammar variants.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestParse_Accepted(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
	}{
		{"one minute", time.Minute},
		{"30 seconds", 30 * time.Second},
		{"2.5 minutes", 150 * time.Second},
		{"a second", time.Second},
		{"an hour", time.Hour},
		{"two hours", 2 * time.Hour},
		{"ten days", 10 * 24 * time.Hour},
		{"1 day", 24 * time.Hour},
		{"3 weeks", 3 * 7 * 24 * time.Hour},
		{"one month", 30 * 24 * time.Hour},
		{"1 year", 365 * 24 * time.Hour},
		{"500 milliseconds", 500 * time.Millisecond},
		{"minute", time.Minute},
		{"  One Minute  ", time.Minute},
		{"0.5 hours", 30 * time.Minute},
	}

	for _, c := range cases {
		got, err := Parse(c.input)
		require.NoError(t, err, "input %q", c.input)
		assert.Equal(t, c.want, got, "input %q", c.input)
	}
}

// TestParse_Rejected verifies that anything outside the grammar fails.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestParse_Rejected(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"every blue moon",
		"0 seconds",
		"-5 seconds",
		"10",
		"ten",
		"seconds minutes",
		"1.2.3 seconds",
		"ten lightyears",
		"one minute later",
		"0.0001 milliseconds",
	}

	for _, input := range cases {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, ErrNonParsable), "input %q", input)
	}
}
