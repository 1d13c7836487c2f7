package metadata

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// lengthPrefix wraps body with a 4-byte little-endian length prefix,
// matching the rest of the on-disk framing used throughout this module.
func lengthPrefix(body []byte) []byte {
	out := make([]byte, 0, 4+len(body))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	return out
}

// readLengthPrefixed reads a 4-byte little-endian length prefix followed by
// that many bytes, returning the body and the total bytes consumed.
func readLengthPrefixed(buf []byte) (body []byte, consumed int, err error) {
	if len(buf) < 4 {
		return nil, 0, xerrors.New("metadata: buffer too short for length prefix")
	}
	n := binary.LittleEndian.Uint32(buf)
	if int(n) > len(buf)-4 {
		return nil, 0, xerrors.New("metadata: declared length exceeds buffer")
	}
	return buf[4 : 4+n], 4 + int(n), nil
}
