package cache

// Kind discriminates the payloads a cache entry can hold.
type Kind int

const (
	// Text is a textual resource (HTML and everything that is not an image).
	Text Kind = iota
	// Binary is an image body, tagged with its format.
	Binary
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Binary:
		return "binary"
	}
	return "unknown"
}

// Value is a stored response body.
// It is either text or binary bytes with a format tag, decided once when the
// resource is fetched. Values are never modified after construction.
type Value struct {
	kind   Kind
	text   string
	data   []byte
	format string
}

// TextValue returns a text payload.
func TextValue(text string) Value {
	return Value{kind: Text, text: text}
}

// BinaryValue returns a binary payload with the given format tag (e.g. "png").
// The bytes are copied.
func BinaryValue(data []byte, format string) Value {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Value{kind: Binary, data: buf, format: format}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Text returns the text payload. It is empty for binary values.
func (v Value) Text() string {
	return v.text
}

// Bytes returns the binary payload. It is nil for text values.
// The returned slice is shared and must not be modified.
func (v Value) Bytes() []byte {
	return v.data
}

// Format returns the format tag of a binary value.
func (v Value) Format() string {
	return v.format
}

// Size returns the payload length in bytes.
func (v Value) Size() int {
	if v.kind == Binary {
		return len(v.data)
	}
	return len(v.text)
}
