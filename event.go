// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
//
// Events for a request started by Drain fire on the draining
// goroutine. Events for Enqueue and RunSync fire on the caller's
// goroutine. Handlers must therefore be safe for concurrent use.
type Event int

const (
	// AfterEnqueue identifies the event that occurs when a request has
	// been submitted to the client, either by the caller, by a
	// completion handler, or by the default retry path.
	//
	// When Client fires AfterEnqueue, the request is Queued and its
	// priority is set, but it may not yet be visible to the scheduler.
	AfterEnqueue Event = iota
	// BeforeStart identifies the event that occurs before each
	// transport operation of a request, whether started by Drain or
	// by RunSync.
	//
	// When Client fires BeforeStart, the request is Active and its
	// attempt counter has been incremented.
	BeforeStart
	// AfterAttemptTimeout identifies the event that occurs after a
	// transport operation failed because of a timeout.
	//
	// When Client fires AfterAttemptTimeout, the request is Completed
	// and its metadata's attempt timeout counter has been incremented.
	AfterAttemptTimeout
	// AfterComplete identifies the event that occurs after every
	// transport operation, successful or not, including operations
	// aborted by a fatal engine error.
	//
	// When Client fires AfterComplete, the request is Completed and
	// its Result and Metadata describe the operation. AfterComplete
	// fires before the request's completion handler runs.
	AfterComplete
	// BeforeRetry identifies the event that occurs when the default
	// completion path has decided to re-submit a failed request.
	//
	// When Client fires BeforeRetry, the request is still Completed.
	BeforeRetry
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"AfterEnqueue",
	"BeforeStart",
	"AfterAttemptTimeout",
	"AfterComplete",
	"BeforeRetry",
}

// Events returns a slice containing all events which can occur for a
// request executed by Client, in the order in which they would occur.
func Events() []Event {
	return []Event{
		AfterEnqueue,
		BeforeStart,
		AfterAttemptTimeout,
		AfterComplete,
		BeforeRetry,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
