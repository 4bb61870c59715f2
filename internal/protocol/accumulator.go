package protocol

import "encoding/json"

// Reassembles a request from successive reads.
//
// The stream carries no length prefix or delimiter: a request is complete as
// soon as everything received so far parses as one JSON document. Two
// documents arriving back to back therefore never parse, and are only
// discarded by the overflow rule.
type Accumulator struct {
	buf   []byte
	limit int
}

// Creates an accumulator that holds at most limit bytes.
func NewAccumulator(limit int) *Accumulator {
	return &Accumulator{limit: limit}
}

// Appends chunk and tries to complete a document.
//
// Returns the document and resets the buffer on success. Returns nil while
// the buffer does not parse. When the buffer grows past the limit it is
// cleared and [ErrBufferOverflow] is returned; the partial request is lost.
// The returned slice is owned by the caller.
func (a *Accumulator) Feed(chunk []byte) ([]byte, error) {
	a.buf = append(a.buf, chunk...)

	if len(a.buf) > a.limit {
		a.buf = nil
		return nil, ErrBufferOverflow
	}

	if !json.Valid(a.buf) {
		return nil, nil
	}

	doc := a.buf
	a.buf = nil
	return doc, nil
}

// Number of bytes currently buffered.
func (a *Accumulator) Len() int {
	return len(a.buf)
}
