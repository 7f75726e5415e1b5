package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// streamMagic opens every snappy framed stream
var streamMagic = []byte("\xff\x06\x00\x00sNaPpY")

// Options controls document encoding
type Options struct {
	Indent   bool
	Compress bool
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write encodes doc to w and returns the number of bytes written to w
func Write(w io.Writer, doc *Document, opts Options) (int64, error) {
	cw := &countingWriter{w: w}

	var out io.Writer = cw
	var sw *snappy.Writer
	if opts.Compress {
		sw = snappy.NewBufferedWriter(cw)
		out = sw
	}

	encoder := json.NewEncoder(out)
	if opts.Indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(doc); err != nil {
		return cw.n, fmt.Errorf("encode document: %w", err)
	}

	if sw != nil {
		if err := sw.Close(); err != nil {
			return cw.n, fmt.Errorf("flush compressed document: %w", err)
		}
	}
	return cw.n, nil
}

// Read decodes a document written by Write. Compression is detected from the
// stream header.
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)

	var in io.Reader = br
	if head, err := br.Peek(len(streamMagic)); err == nil && bytes.Equal(head, streamMagic) {
		in = snappy.NewReader(br)
	}

	var doc Document
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
