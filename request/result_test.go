// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/mwiki/mhttp/transient"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.False(t, Failure.OK())
	assert.Nil(t, Failure.Body)
	assert.Equal(t, "failure", Failure.Outcome.String())

	s := Success(nil)
	assert.True(t, s.OK())
	assert.NotNil(t, s.Body)
	assert.Empty(t, s.Body)
	assert.Equal(t, "success", s.Outcome.String())

	assert.Equal(t, "pending", Result{}.Outcome.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

func TestMetadata_Duration(t *testing.T) {
	start := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &Metadata{}
	assert.Equal(t, time.Duration(0), m.Duration())
	m.Start = start
	assert.Equal(t, time.Duration(0), m.Duration())
	m.End = start.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, m.Duration())
}

func TestMetadata_Success(t *testing.T) {
	assert.True(t, (&Metadata{StatusCode: 200}).Success())
	assert.False(t, (&Metadata{StatusCode: 204}).Success())
	assert.False(t, (&Metadata{StatusCode: 500}).Success())
	assert.False(t, (&Metadata{}).Success())
	assert.False(t, (&Metadata{StatusCode: 200, Err: &url.Error{Op: "Get", URL: "x", Err: context.Canceled}}).Success())
}

func TestMetadata_Timeout(t *testing.T) {
	assert.False(t, (&Metadata{}).Timeout())
	assert.True(t, (&Metadata{Category: transient.Timeout}).Timeout())
	assert.False(t, (&Metadata{Category: transient.ConnReset}).Timeout())
}
