package gg20

import (
	"crypto/elliptic"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/tss"
)

// marshalECPoint encodes the group public key in uncompressed SEC1 form,
// the same shape clients of other tss-lib-backed services exchange it in.
func marshalECPoint(p *crypto.ECPoint) []byte {
	if p == nil {
		return nil
	}
	return elliptic.Marshal(tss.S256(), p.X(), p.Y())
}
