package core

// streaming.go wraps file handles so the rest of the package only sees
// UTF-8 text:
//
//   - NewDecodingReader: decodes the configured input encoding. UTF-8 input
//     has its byte-order mark dropped and invalid bytes replaced with U+FFFD.
//   - NewEncodingWriter: encodes UTF-8 text into the output encoding.
//   - CountingReader: tracks bytes read for the run log.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultInputEncoding tolerates a leading byte-order mark.
const DefaultInputEncoding = "utf-8-sig"

// DefaultOutputEncoding writes UTF-8 without a byte-order mark.
const DefaultOutputEncoding = "utf-8"

// encodingAliases resolves the names operators usually type. Anything
// else goes through the WHATWG index.
var encodingAliases = map[string]encoding.Encoding{
	"utf-8-sig":    unicode.UTF8BOM,
	"utf8-sig":     unicode.UTF8BOM,
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"utf-16":       unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// LookupEncoding resolves an encoding name. The empty name is the default
// input encoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultInputEncoding
	}
	if enc, ok := encodingAliases[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// isUTF8 reports whether the encoding needs no byte transformation beyond
// BOM handling.
func isUTF8(enc encoding.Encoding) bool {
	return enc == unicode.UTF8 || enc == unicode.UTF8BOM
}

// NewDecodingReader returns a reader yielding UTF-8 text decoded from r.
func NewDecodingReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if isUTF8(enc) {
		// UTF8BOM strips a BOM when present and sanitizes invalid bytes.
		enc = unicode.UTF8BOM
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// NewEncodingWriter returns a writer that encodes UTF-8 text into w.
// Close must be called to flush buffered output; it does not close w.
// Runes the target charset cannot represent are replaced.
func NewEncodingWriter(w io.Writer, name string) (io.WriteCloser, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultOutputEncoding
	}
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return nopWriteCloser{w}, nil
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder())), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// readAllDecoded reads r to the end. Decoder failures surface as
// ErrEncoding.
func readAllDecoded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		if errors.Is(err, transform.ErrShortSrc) || errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
