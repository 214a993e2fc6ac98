package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// maxChunkLength caps the declared data length of a chunk, per the PNG
// standard.
const maxChunkLength = 1<<31 - 1

// chunkOverhead is the framing around the data: length, type code and CRC.
const chunkOverhead = 12

// Chunk is a single PNG chunk. The CRC is computed from the content on
// demand and is therefore always consistent.
type Chunk struct {
	typ  ChunkType
	data []byte
}

// NewChunk builds a chunk from a type code and a payload.
func NewChunk(typ ChunkType, data []byte) *Chunk {
	return &Chunk{typ: typ, data: data}
}

// ParseChunk decodes a complete chunk from raw. The first four bytes are the
// data length, the next four the type code, the last four the CRC; everything
// in between is the data. Length and CRC are accepted in either byte order,
// a mismatch in both is an error.
func ParseChunk(raw []byte) (*Chunk, error) {
	if len(raw) < chunkOverhead {
		return nil, eris.Errorf("chunk needs at least %d bytes, got %d", chunkOverhead, len(raw))
	}

	chunk := &Chunk{
		typ:  NewChunkType([4]byte(raw[4:8])),
		data: append([]byte(nil), raw[8:len(raw)-4]...),
	}

	declared := raw[:4]
	length := uint32(len(chunk.data))
	if length != binary.BigEndian.Uint32(declared) && length != binary.LittleEndian.Uint32(declared) {
		return nil, eris.Errorf("chunk declares %d data bytes but carries %d",
			binary.BigEndian.Uint32(declared), length)
	}

	stored := raw[len(raw)-4:]
	crc := chunk.CRC()
	if crc != binary.BigEndian.Uint32(stored) && crc != binary.LittleEndian.Uint32(stored) {
		return nil, eris.Errorf("chunk %s: CRC mismatch (computed %d, stored %d)",
			chunk.typ, crc, binary.BigEndian.Uint32(stored))
	}

	return chunk, nil
}

// ReadChunk reads one chunk from r. The length is big-endian as in every
// valid PNG file; the CRC check accepts either byte order, just like
// ParseChunk. A clean end of input yields io.EOF.
func ReadChunk(r io.Reader) (*Chunk, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}

		return nil, eris.Wrap(err, "cannot read chunk header")
	}

	length := binary.BigEndian.Uint32(header[:4])
	if length > maxChunkLength {
		return nil, eris.Errorf("chunk length %d exceeds the PNG limit", length)
	}

	typ := NewChunkType([4]byte(header[4:8]))
	rest := make([]byte, int(length)+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, eris.Wrapf(err, "cannot read %d data bytes of chunk %s", length, typ)
	}

	chunk := &Chunk{typ: typ, data: rest[:length]}
	stored := rest[length:]
	crc := chunk.CRC()
	if crc != binary.BigEndian.Uint32(stored) && crc != binary.LittleEndian.Uint32(stored) {
		return nil, eris.Errorf("chunk %s: CRC mismatch (computed %d, stored %d)",
			typ, crc, binary.BigEndian.Uint32(stored))
	}

	return chunk, nil
}

// Type returns the chunk's type code.
func (c *Chunk) Type() ChunkType {
	return c.typ
}

// Data returns the chunk's payload. The slice is shared with the chunk.
func (c *Chunk) Data() []byte {
	return c.data
}

// Length returns the number of data bytes.
func (c *Chunk) Length() uint32 {
	return uint32(len(c.data))
}

// CRC computes the CRC-32 (ISO-HDLC) over the type code and the data.
func (c *Chunk) CRC() uint32 {
	h := crc32.NewIEEE()
	h.Write(c.typ[:])
	h.Write(c.data)
	return h.Sum32()
}

// DataAsString returns the payload as text. Payloads that are not valid
// UTF-8 are an error.
func (c *Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", eris.Errorf("chunk %s does not contain valid UTF-8", c.typ)
	}

	return string(c.data), nil
}

// Bytes returns the chunk in wire form.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, 0, chunkOverhead+len(c.data))
	buf = binary.BigEndian.AppendUint32(buf, c.Length())
	buf = append(buf, c.typ[:]...)
	buf = append(buf, c.data...)
	buf = binary.BigEndian.AppendUint32(buf, c.CRC())
	return buf
}

func (c *Chunk) String() string {
	var sb strings.Builder
	sb.WriteString("Chunk {\n")
	fmt.Fprintf(&sb, "    Length: %d\n", c.Length())
	fmt.Fprintf(&sb, "    Type code: %q (%v)\n", c.typ.String(), c.typ.Bytes())
	fmt.Fprintf(&sb, "    Data: %d bytes\n", len(c.data))
	fmt.Fprintf(&sb, "    CRC: %d\n", c.CRC())
	sb.WriteString("}\n")
	return sb.String()
}
