package csvio

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type Encoding string

const (
	// EncodingWindows1252 is assumed for fresh uploads, which are mostly spreadsheet exports.
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingUTF8        Encoding = "utf-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows-1252", "win1252", "cp1252":
		return EncodingWindows1252, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	}
	return "", &DecodeError{Encoding: Encoding(s), Err: errUnknownEncoding}
}

// Decode returns a reader yielding src as UTF-8 text. The stream is consumed
// lazily and cannot be rewound; re-open the source to read it again.
func Decode(src io.Reader, enc Encoding) (io.Reader, error) {
	var t transform.Transformer
	switch enc {
	case EncodingWindows1252:
		t = charmap.Windows1252.NewDecoder()
	case EncodingUTF8:
		t = encoding.UTF8Validator
	default:
		return nil, &DecodeError{Encoding: enc, Err: errUnknownEncoding}
	}
	return &decodeReader{r: transform.NewReader(src, t), enc: enc}, nil
}

type decodeReader struct {
	r   io.Reader
	enc Encoding
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && errors.Is(err, encoding.ErrInvalidUTF8) {
		return n, &DecodeError{Encoding: d.enc, Err: err}
	}
	return n, err
}

// StripBOM drops a leading UTF-8 byte-order mark from r.
func StripBOM(r io.Reader) io.Reader {
	br, _ := SkipBOM(r)
	return br
}

// SkipBOM is StripBOM that also reports whether a mark was there.
func SkipBOM(r io.Reader) (io.Reader, bool) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		return br, true
	}
	return br, false
}
