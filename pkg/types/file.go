package types

import "io"

// File describes one file being stored or removed by the host.
// The provider only reads its fields, except URL which it sets after a
// successful upload.
type File struct {
	Name    string  `json:"name"`
	Hash    string  `json:"hash"`
	Ext     string  `json:"ext"`  // including the leading dot, e.g. ".png"
	Mime    string  `json:"mime"`
	Path    string  `json:"path"` // optional relative path fragment, no surrounding slashes
	Size    int64   `json:"size"`
	URL     string  `json:"url"`
	Payload Payload `json:"-"`
}

// Payload is the content of a File: either a stream or an in-memory buffer.
// The set of implementations is closed to this package.
type Payload interface {
	payload()
}

// StreamPayload carries content as a reader.
type StreamPayload struct {
	Reader io.Reader
}

// BufferPayload carries content held in memory. Data is always uploaded as
// raw bytes; Encoding is informational only.
type BufferPayload struct {
	Data     []byte
	Encoding string
}

func (StreamPayload) payload() {}
func (BufferPayload) payload() {}

// NewStream wraps r as a stream payload
func NewStream(r io.Reader) Payload {
	return StreamPayload{Reader: r}
}

// NewBuffer wraps b as a binary buffer payload
func NewBuffer(b []byte) Payload {
	return BufferPayload{Data: b, Encoding: "binary"}
}
