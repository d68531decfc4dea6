package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("kvcache: corrupt record")
	magic4     = [...]byte{'K', 'V', 'C', 'R'}
)

const hdrLen = 4 + 1 + 4 + 8 + 2

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Record is a framed store record: generation, absolute expiry and bins.
type Record struct {
	Gen       uint32
	ExpiresAt int64 // unix ms; 0 => never
	Bins      map[string][]byte
}

// Expired reports whether the record is past its expiry at nowMs.
func (r Record) Expired(nowMs int64) bool {
	return r.ExpiresAt != 0 && nowMs >= r.ExpiresAt
}

// EncodeRecord frames a record:
//
//	magic(4) | ver(1) | gen(u32 be) | expiresAt(i64 be) | n(u16 be)
//	nameLen(u16 be) | name(nameLen) | vlen(u32 be) | value(vlen) * n
//
// Bins are written in name order so equal records encode to equal bytes.
func EncodeRecord(r Record) ([]byte, error) {
	if len(r.Bins) > 0xFFFF {
		return nil, fmt.Errorf("wire: too many bins: %d", len(r.Bins))
	}
	names := make([]string, 0, len(r.Bins))
	total := hdrLen
	for name, v := range r.Bins {
		if l := len(name); l == 0 || l > 0xFFFF {
			return nil, fmt.Errorf("wire: invalid bin name length %d", l)
		}
		names = append(names, name)
		total += 2 + len(name) + 4 + len(v)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], r.Gen)
	buf.Write(u4[:])

	binary.BigEndian.PutUint64(u8[:], uint64(r.ExpiresAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint16(u2[:], uint16(len(names)))
	buf.Write(u2[:])

	for _, name := range names {
		v := r.Bins[name]
		binary.BigEndian.PutUint16(u2[:], uint16(len(name)))
		buf.Write(u2[:])
		buf.WriteString(name)

		binary.BigEndian.PutUint32(u4[:], uint32(len(v)))
		buf.Write(u4[:])
		buf.Write(v)
	}
	return buf.Bytes(), nil
}

// DecodeRecord parses a frame produced by EncodeRecord. Bin values alias b.
// Trailing bytes, duplicate names and short frames are rejected with ErrCorrupt.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Record{}, ErrCorrupt
	}
	off := 5

	gen := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	n := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2

	bins := make(map[string][]byte, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return Record{}, ErrCorrupt
		}
		nlen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if nlen == 0 || nlen > len(b)-off {
			return Record{}, ErrCorrupt
		}
		name := string(b[off : off+nlen])
		off += nlen
		if _, dup := bins[name]; dup {
			return Record{}, ErrCorrupt
		}

		if off+4 > len(b) {
			return Record{}, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
			return Record{}, ErrCorrupt
		}
		bins[name] = b[off : off+vlen]
		off += vlen
	}
	if off != len(b) {
		return Record{}, ErrCorrupt
	}
	return Record{Gen: gen, ExpiresAt: exp, Bins: bins}, nil
}
