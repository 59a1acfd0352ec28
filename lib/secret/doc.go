// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for credential
// material: passwords collected by the operator CLI and the pseudonym
// salt loaded by the daemon.
//
// Buffer allocates memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock, and
// marks it excluded from core dumps via madvise(MADV_DONTDUMP). On
// Close the memory is zeroed, unlocked, and unmapped.
package secret
