package stash

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/morlinbrot/pngstash/pkg/png"
)

// previewLimit caps the number of characters shown per chunk.
const previewLimit = 40

// ChunkInfo describes one chunk of a file for display purposes.
type ChunkInfo struct {
	Index      int
	Type       png.ChunkType
	Length     uint32
	CRC        uint32
	Critical   bool
	SafeToCopy bool
	Preview    string
}

// Inspect returns a row per chunk of the image at path, in file order.
func Inspect(path string) ([]ChunkInfo, error) {
	file, err := readImage(path)
	if err != nil {
		return nil, err
	}

	infos := make([]ChunkInfo, 0, len(file.Chunks()))
	for i, chunk := range file.Chunks() {
		infos = append(infos, ChunkInfo{
			Index:      i,
			Type:       chunk.Type(),
			Length:     chunk.Length(),
			CRC:        chunk.CRC(),
			Critical:   chunk.Type().IsCritical(),
			SafeToCopy: chunk.Type().IsSafeToCopy(),
			Preview:    preview(chunk.Data()),
		})
	}

	return infos, nil
}

// preview renders printable payloads as truncated text and everything else
// as a placeholder.
func preview(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	if bytes.HasPrefix(data, xzMagic) {
		return "(xz data)"
	}

	if !utf8.Valid(data) {
		return "(binary)"
	}

	text := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, string(data))

	if text == "" {
		return "(binary)"
	}

	runes := []rune(text)
	if len(runes) > previewLimit {
		text = string(runes[:previewLimit]) + "..."
	}

	return text
}
