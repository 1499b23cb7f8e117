package csvio

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Record is one parsed row keyed by header name, in header order.
type Record = *orderedmap.OrderedMap

// Reader streams records out of decoded delimited text. The first non-empty
// line is the header.
type Reader struct {
	cr        *csv.Reader
	header    []string
	headerErr error
	started   bool
}

func NewReader(src io.Reader, delim rune) *Reader {
	cr := csv.NewReader(&paddingTrimmer{br: bufio.NewReader(src), delim: string(delim)})
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{cr: cr}
}

// Header returns the trimmed header names. An empty input yields a nil header
// and no error.
func (r *Reader) Header() ([]string, error) {
	r.readHeader()
	return r.header, r.headerErr
}

func (r *Reader) readHeader() {
	if r.started {
		return
	}
	r.started = true

	fields, err := r.cr.Read()
	if err == io.EOF {
		return
	}
	if err != nil {
		r.headerErr = r.convert(err)
		return
	}

	line, _ := r.cr.FieldPos(0)
	seen := make(map[string]struct{}, len(fields))
	header := make([]string, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			r.headerErr = &ParseError{Line: line, Err: fmt.Errorf("empty header name in column %d", i+1)}
			return
		}
		if _, dup := seen[name]; dup {
			r.headerErr = &ParseError{Line: line, Err: fmt.Errorf("duplicate header name %q", name)}
			return
		}
		seen[name] = struct{}{}
		header[i] = name
	}
	r.header = header
}

// Next returns the next record or io.EOF.
func (r *Reader) Next() (Record, error) {
	r.readHeader()
	if r.headerErr != nil {
		return nil, r.headerErr
	}
	if r.header == nil {
		return nil, io.EOF
	}

	fields, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, r.convert(err)
	}
	if len(fields) > len(r.header) {
		line, _ := r.cr.FieldPos(0)
		return nil, &ParseError{Line: line, Err: fmt.Errorf("row has %d fields, header has %d", len(fields), len(r.header))}
	}

	rec := orderedmap.New()
	for i, f := range fields {
		rec.Set(r.header[i], strings.TrimSpace(f))
	}
	return rec, nil
}

// ReadAll drains the reader. It stops with ctx.Err() once ctx is done.
func (r *Reader) ReadAll(ctx context.Context) ([]Record, error) {
	var out []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func (r *Reader) convert(err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: ErrReadSource, Cause: err}
}

// paddingTrimmer drops the line terminator and any trailing run of delimiter
// characters from every physical line that ends outside a quoted field, then
// re-terminates it with "\n". Lines ending inside quotes are passed on as is.
type paddingTrimmer struct {
	br     *bufio.Reader
	delim  string
	quoted bool
	buf    []byte
	err    error
}

func (p *paddingTrimmer) Read(b []byte) (int, error) {
	for len(p.buf) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		line, err := p.br.ReadString('\n')
		if len(line) > 0 {
			// "" inside a quoted field toggles twice
			if strings.Count(line, `"`)%2 == 1 {
				p.quoted = !p.quoted
			}
			if p.quoted {
				p.buf = append(p.buf[:0], line...)
			} else {
				line = strings.TrimRight(line, "\r\n")
				line = strings.TrimRight(line, p.delim)
				p.buf = append(p.buf[:0], line...)
				p.buf = append(p.buf, '\n')
			}
		}
		if err != nil {
			p.err = err
		}
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}
