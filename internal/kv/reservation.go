package kv

// Reservation is an exclusive claim on a key, obtained from Store.Reserve
// and consumed by Store.Put. It carries no exported fields, so callers
// cannot point one at a key of their choosing. Put checks at runtime that
// the token has not been used and that its key still holds a reservation
// marker, and fails with kverrors.ErrNoReservation otherwise.
type Reservation struct {
	key  []byte
	used bool
}

func (r *Reservation) Key() []byte {
	return append([]byte(nil), r.key...)
}
