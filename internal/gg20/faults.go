package gg20

import "github.com/binance-chain/tss-lib/tss"

// culpritsToCriminals converts tss-lib's fault-detection output (a
// *tss.Error carrying the PartyIDs it blames) into this package's
// Criminal list. A tss.Error with no culprits is an internal failure,
// not a protocol fault, and is left for the caller to report as Err
// instead: criminals are results, not errors.
func culpritsToCriminals(err *tss.Error) []Criminal {
	culprits := err.Culprits()
	if len(culprits) == 0 {
		return nil
	}
	out := make([]Criminal, 0, len(culprits))
	seen := make(map[string]bool, len(culprits))
	for _, c := range culprits {
		phys := physicalOf(c)
		if seen[phys] {
			continue
		}
		seen[phys] = true
		out = append(out, Criminal{PartyUID: phys, CrimeType: err.Error()})
	}
	return out
}
