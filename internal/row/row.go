// Package row implements the fixed-width (id, username, email) tuple and
// its binary codec: a single byte slot in, a single byte slot out.
package row

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// Field sizes and offsets, computed once like the teacher's declarative
// layout constants rather than hand-counted magic numbers scattered through
// the codec.
const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize

	// Size is the serialized row width: 4 + 32 + 255 = 291 bytes.
	Size = IDOffset + IDSize + UsernameSize + EmailSize
)

// Row is the in-memory representation of one table tuple. Username and
// Email are plain Go strings; the codec enforces the byte-length contract
// on serialize, not on construction.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Serialize writes id, username, and email into dst, which must be exactly
// Size bytes. Username and email shorter than their slot are zero-filled;
// the parser layer is responsible for rejecting strings that are too long
// before a Row ever reaches here.
func Serialize(r Row, dst []byte) error {
	if len(dst) != Size {
		return errors.Errorf("row.Serialize: dst is %d bytes, want %d", len(dst), Size)
	}
	if len(r.Username) > UsernameSize {
		return errors.Errorf("row.Serialize: username %d bytes exceeds %d", len(r.Username), UsernameSize)
	}
	if len(r.Email) > EmailSize {
		return errors.Errorf("row.Serialize: email %d bytes exceeds %d", len(r.Email), EmailSize)
	}

	for i := range dst {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint32(dst[IDOffset:IDOffset+IDSize], r.ID)
	copy(dst[UsernameOffset:UsernameOffset+UsernameSize], r.Username)
	copy(dst[EmailOffset:EmailOffset+EmailSize], r.Email)
	return nil
}

// Deserialize is the inverse of Serialize. src must be exactly Size bytes.
// Username and email are trimmed of trailing NUL bytes.
func Deserialize(src []byte) (Row, error) {
	if len(src) != Size {
		return Row{}, errors.Errorf("row.Deserialize: src is %d bytes, want %d", len(src), Size)
	}
	var r Row
	r.ID = binary.LittleEndian.Uint32(src[IDOffset : IDOffset+IDSize])
	r.Username = strings.TrimRight(string(src[UsernameOffset:UsernameOffset+UsernameSize]), "\x00")
	r.Email = strings.TrimRight(string(src[EmailOffset:EmailOffset+EmailSize]), "\x00")
	return r, nil
}
