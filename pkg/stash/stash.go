// Package stash hides, reveals and finds text messages stored in ancillary
// PNG chunks.
package stash

import (
	"bytes"
	"context"
	"io"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
	"github.com/morlinbrot/pngstash/pkg/png"
)

// xzMagic starts every xz stream. Payloads carrying it are decompressed
// transparently on decode.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Options control how a message is stored.
type Options struct {
	// Type is the code of the chunk that will carry the message.
	Type png.ChunkType
	// Message is the text to store.
	Message string
	// Output is the path to write. Empty means rewriting the input file.
	Output string
	// Compress stores the message xz-compressed.
	Compress bool
}

// Encode appends a chunk carrying the message to the image at path. The
// rest of the file is left untouched.
func Encode(ctx context.Context, path string, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	file, err := readImage(path)
	if err != nil {
		return err
	}

	if opts.Type.IsCritical() {
		logger.Warn().Str("path", path).
			Msgf("chunk type %s is marked critical, strict decoders will reject the file", opts.Type)
	}
	if !opts.Type.IsReservedBitValid() {
		logger.Warn().Str("path", path).
			Msgf("chunk type %s has an invalid reserved bit", opts.Type)
	}

	payload := []byte(opts.Message)
	if opts.Compress {
		payload, err = compress(payload)
		if err != nil {
			return eris.Wrap(err, "cannot compress message")
		}

		logger.Debug().
			Int("raw", len(opts.Message)).
			Int("compressed", len(payload)).
			Msg("compressed payload")
	}

	file.AppendChunk(png.NewChunk(opts.Type, payload))

	out := opts.Output
	if out == "" {
		out = path
	}

	err = os.WriteFile(out, file.Bytes(), 0644)
	if err != nil {
		return eris.Wrapf(err, "cannot write %s", out)
	}

	logger.Info().Str("path", out).
		Msgf("stored a %d byte message in chunk %s", len(opts.Message), opts.Type)
	return nil
}

// Decode returns the message stored in the first chunk of the given type.
func Decode(ctx context.Context, path string, typ png.ChunkType) (string, error) {
	file, err := readImage(path)
	if err != nil {
		return "", err
	}

	chunk := file.ChunkByType(typ)
	if chunk == nil {
		return "", eris.Errorf("%s has no chunk of type %s", path, typ)
	}

	msg, err := decodePayload(chunk.Data())
	if err != nil {
		return "", eris.Wrapf(err, "chunk %s in %s", typ, path)
	}

	ctxlog.FromContext(ctx).Debug().Str("path", path).
		Msgf("read a %d byte message from chunk %s", len(msg), typ)
	return msg, nil
}

// Remove drops the first chunk of the given type and rewrites the file.
// Output works like in Options.
func Remove(ctx context.Context, path string, typ png.ChunkType, output string) error {
	file, err := readImage(path)
	if err != nil {
		return err
	}

	removed, err := file.RemoveFirstChunk(typ)
	if err != nil {
		return eris.Wrapf(err, "cannot remove chunk from %s", path)
	}

	out := output
	if out == "" {
		out = path
	}

	err = os.WriteFile(out, file.Bytes(), 0644)
	if err != nil {
		return eris.Wrapf(err, "cannot write %s", out)
	}

	ctxlog.FromContext(ctx).Info().Str("path", out).
		Msgf("removed chunk %s (%d bytes)", typ, removed.Length())
	return nil
}

func readImage(path string) (*png.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot read %s", path)
	}

	file, err := png.ParseFile(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot parse %s", path)
	}

	return file, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodePayload(data []byte) (string, error) {
	if bytes.HasPrefix(data, xzMagic) {
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", eris.Wrap(err, "cannot open xz payload")
		}

		data, err = io.ReadAll(r)
		if err != nil {
			return "", eris.Wrap(err, "cannot decompress payload")
		}
	}

	if !utf8.Valid(data) {
		return "", eris.New("payload is not valid UTF-8")
	}

	return string(data), nil
}
