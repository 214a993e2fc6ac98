// Package png implements the subset of the PNG format needed to stash
// messages in ancillary chunks: type codes, single chunks, and whole files.
package png

import "github.com/rotisserie/eris"

// Bit 5 of a type byte switches an ASCII letter between upper and lower
// case; PNG reads it as a property bit.
const propertyBit = 0x20

// ChunkType is the four-byte type code of a chunk. The case of each letter
// encodes a property of the chunk.
type ChunkType [4]byte

// NewChunkType wraps four raw bytes as a type code without validation.
// Use IsValid to check the result.
func NewChunkType(raw [4]byte) ChunkType {
	return ChunkType(raw)
}

// ParseChunkType parses a type code such as "ruSt". The code has to be four
// ASCII letters; the reserved bit is allowed to be invalid.
func ParseChunkType(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, eris.Errorf("chunk type %q must be 4 characters long", s)
	}

	var t ChunkType
	copy(t[:], s)
	if !t.lettersValid() {
		return ChunkType{}, eris.Errorf("chunk type %q contains characters outside A-Z and a-z", s)
	}

	return t, nil
}

// Bytes returns the raw type code.
func (t ChunkType) Bytes() [4]byte {
	return [4]byte(t)
}

func (t ChunkType) String() string {
	return string(t[:])
}

// IsCritical reports whether decoders must understand this chunk. The first
// letter is upper case for critical chunks.
func (t ChunkType) IsCritical() bool {
	return t[0]&propertyBit == 0
}

// IsPublic reports whether the type comes from the public registry. The
// second letter is upper case for public types.
func (t ChunkType) IsPublic() bool {
	return t[1]&propertyBit == 0
}

// IsReservedBitValid reports whether the third letter is upper case as the
// standard requires of all current types.
func (t ChunkType) IsReservedBitValid() bool {
	return t[2]&propertyBit == 0
}

// IsSafeToCopy reports whether editors that do not recognise the chunk may
// copy it anyway. The fourth letter is lower case for safe-to-copy chunks.
func (t ChunkType) IsSafeToCopy() bool {
	return t[3]&propertyBit != 0
}

// IsValid reports whether the code consists of ASCII letters and carries a
// valid reserved bit.
func (t ChunkType) IsValid() bool {
	return t.lettersValid() && t.IsReservedBitValid()
}

func (t ChunkType) lettersValid() bool {
	for _, b := range t {
		if !isTypeByte(b) {
			return false
		}
	}

	return true
}

func isTypeByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
