// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that ticket
// expiration and the session reaper can be tested without sleeping.
//
// Production code accepts a Clock parameter (or holds one in a struct
// field) instead of calling time.Now or time.NewTicker directly. In
// production, Real() provides standard library behavior. In tests,
// Fake() provides a clock that advances only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	authority := authority.New(authority.Config{Clock: c, ...})
//	c.Advance(2 * time.Hour) // session is now expired
package clock
