// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the CBOR-over-Unix-socket protocol
// between the authority daemon and its clients (the signet CLI, relying
// services on the same host).
//
// The protocol is one request-response pair per connection. Requests
// are CBOR maps with an "action" field naming the operation; responses
// are an envelope {ok, error, data}. There is no in-protocol
// authentication: the socket file's ownership and mode are the access
// control.
package control
