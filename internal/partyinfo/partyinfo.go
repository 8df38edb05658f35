// Package partyinfo defines the PartyInfo record persisted by a
// successful keygen or recovery, and its stable binary codec.
package partyinfo

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PartyInfo is the outcome of one keygen (or an equivalent recovery): the
// shares this party owns, the ordered roster of every party, and this
// party's place in it. Keyed in the kv store by new_key_uid; written
// exactly once, never mutated in place.
type PartyInfo struct {
	// SecretKeyShares are the opaque, GG20-library-serialized shares this
	// party holds. len(SecretKeyShares) == PartyShareCounts[MyIndex].
	SecretKeyShares [][]byte
	// PartyUIDs is the ordered list of every party in the ceremony.
	PartyUIDs []string
	// PartyShareCounts[i] is how many shares PartyUIDs[i] holds.
	PartyShareCounts []uint32
	// MyIndex is this party's position in PartyUIDs/PartyShareCounts.
	MyIndex uint32
	// Threshold is the keygen threshold t: any t+1 shares can sign.
	Threshold uint32
	// PubKey is the group public key produced by keygen, uncompressed SEC1 form.
	PubKey []byte
}

// Validate checks the invariants a deserialised
// PartyInfo before it is trusted by sign or a further recovery.
func (p *PartyInfo) Validate() error {
	if int(p.MyIndex) >= len(p.PartyUIDs) {
		return fmt.Errorf("partyinfo: my_index %d out of range (%d parties)", p.MyIndex, len(p.PartyUIDs))
	}
	if len(p.PartyUIDs) != len(p.PartyShareCounts) {
		return fmt.Errorf("partyinfo: party_uids (%d) and party_share_counts (%d) length mismatch", len(p.PartyUIDs), len(p.PartyShareCounts))
	}
	var total uint32
	for i, c := range p.PartyShareCounts {
		if c == 0 {
			return fmt.Errorf("partyinfo: party %d has zero shares", i)
		}
		total += c
	}
	if p.PartyShareCounts[p.MyIndex] != uint32(len(p.SecretKeyShares)) {
		return fmt.Errorf("partyinfo: party_share_counts[my_index]=%d but holds %d shares", p.PartyShareCounts[p.MyIndex], len(p.SecretKeyShares))
	}
	if total == 0 || p.Threshold+1 > total {
		return fmt.Errorf("partyinfo: threshold %d needs %d shares but only %d exist", p.Threshold, p.Threshold+1, total)
	}
	return nil
}

// Encode serialises p into the stable length-prefixed binary format
// persisted by the kv manager.
func Encode(p *PartyInfo) ([]byte, error) {
	var buf bytes.Buffer

	writeUint32(&buf, uint32(len(p.SecretKeyShares)))
	for _, s := range p.SecretKeyShares {
		writeBytes(&buf, s)
	}

	writeUint32(&buf, uint32(len(p.PartyUIDs)))
	for _, uid := range p.PartyUIDs {
		writeBytes(&buf, []byte(uid))
	}

	writeUint32(&buf, uint32(len(p.PartyShareCounts)))
	for _, c := range p.PartyShareCounts {
		writeUint32(&buf, c)
	}

	writeUint32(&buf, p.MyIndex)
	writeUint32(&buf, p.Threshold)
	writeBytes(&buf, p.PubKey)

	return buf.Bytes(), nil
}

// Decode parses the format Encode produces and validates the result.
func Decode(data []byte) (*PartyInfo, error) {
	r := bytes.NewReader(data)
	p := &PartyInfo{}

	nShares, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("partyinfo: decoding share count: %w", err)
	}
	if int(nShares) > r.Len()/4 {
		return nil, fmt.Errorf("partyinfo: share count %d exceeds remaining %d bytes", nShares, r.Len())
	}
	p.SecretKeyShares = make([][]byte, nShares)
	for i := range p.SecretKeyShares {
		p.SecretKeyShares[i], err = readBytes(r)
		if err != nil {
			return nil, fmt.Errorf("partyinfo: decoding share %d: %w", i, err)
		}
	}

	nUIDs, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("partyinfo: decoding party_uids count: %w", err)
	}
	if int(nUIDs) > r.Len()/4 {
		return nil, fmt.Errorf("partyinfo: party_uids count %d exceeds remaining %d bytes", nUIDs, r.Len())
	}
	p.PartyUIDs = make([]string, nUIDs)
	for i := range p.PartyUIDs {
		b, err := readBytes(r)
		if err != nil {
			return nil, fmt.Errorf("partyinfo: decoding party_uid %d: %w", i, err)
		}
		p.PartyUIDs[i] = string(b)
	}

	nCounts, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("partyinfo: decoding party_share_counts count: %w", err)
	}
	if int(nCounts) > r.Len()/4 {
		return nil, fmt.Errorf("partyinfo: party_share_counts count %d exceeds remaining %d bytes", nCounts, r.Len())
	}
	p.PartyShareCounts = make([]uint32, nCounts)
	for i := range p.PartyShareCounts {
		p.PartyShareCounts[i], err = readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("partyinfo: decoding party_share_counts[%d]: %w", i, err)
		}
	}

	if p.MyIndex, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("partyinfo: decoding my_index: %w", err)
	}
	if p.Threshold, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("partyinfo: decoding threshold: %w", err)
	}
	if p.PubKey, err = readBytes(r); err != nil {
		return nil, fmt.Errorf("partyinfo: decoding pub_key: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := r.Read(tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	// guard against a corrupt length prefix driving an enormous allocation
	if int(n) > r.Len() {
		return nil, fmt.Errorf("partyinfo: length prefix %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
