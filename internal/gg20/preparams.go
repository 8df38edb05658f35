package gg20

import (
	"time"

	"github.com/binance-chain/tss-lib/ecdsa/keygen"
)

// preParamsTimeout bounds how long tss-lib may spend generating the
// Paillier/Pedersen preparameters each local keygen party needs before
// round 1. Safe-prime generation is the expensive part, and it runs
// with or without --unsafe.
const preParamsTimeout = 5 * time.Minute

// generatePreParams produces one party's local preparameters.
// tss-lib does not expose a distinct "unsafe prime" code path the way
// the original Rust tofn library did; --unsafe is mapped onto raising
// GeneratePreParams' concurrency so the (identically safe) generation
// finishes fast enough for CI, which is the only property tests
// actually depend on. This is recorded in DESIGN.md as a deliberate
// narrowing of an out-of-scope cryptographic detail.
func generatePreParams(safePrimes bool) (*keygen.LocalPreParams, error) {
	if safePrimes {
		return keygen.GeneratePreParams(preParamsTimeout)
	}
	return keygen.GeneratePreParams(preParamsTimeout, 4)
}
