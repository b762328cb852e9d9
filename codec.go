package keypager

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// MaxSecretSize is the longest checksum secret accepted by NewCursorCodec.
	MaxSecretSize = blake2b.Size

	checksumSize = 16

	fieldDelimiter = '|'
	escapeByte     = '\\'
)

// CursorCodec encodes cursors into opaque URL-safe tokens and back.
//
// Token layout before base64url:
//
//	<marker>|<v1>|<v2>...|<vn><checksum>
//
// where marker is ">" (forward) or "<" (backward), each vi is the canonical
// text form of a value with "|" and "\" escaped by "\", and checksum is a
// 16 byte BLAKE2b digest keyed by the secret. The digest covers the
// orderings (column, direction and kind of each) followed by everything
// before the checksum, so a token only decodes under the orderings it was
// issued for. The orderings themselves are not stored in the token.
//
// CursorCodec is immutable and safe for concurrent use.
type CursorCodec struct {
	secret []byte
}

// NewCursorCodec creates a codec with the given checksum secret. An empty
// secret gives an unkeyed deterministic checksum, which detects corruption
// but not deliberate forgery.
func NewCursorCodec(secret []byte) (*CursorCodec, error) {
	if len(secret) > MaxSecretSize {
		return nil, fmt.Errorf("cursor secret is too long: %d bytes, max %d", len(secret), MaxSecretSize)
	}

	return &CursorCodec{
		secret: append([]byte(nil), secret...),
	}, nil
}

// Encode serializes a cursor built for the given orderings. A nil or empty
// cursor encodes to the empty token.
func (c *CursorCodec) Encode(orderings Orderings, cursor *Cursor) (string, error) {
	if cursor.IsEmpty() {
		return "", nil
	}

	if err := cursor.validate(orderings); err != nil {
		return "", fmt.Errorf("cannot encode cursor: %w", err)
	}

	var b strings.Builder
	b.WriteString(cursor.Traversal.marker())
	for _, v := range cursor.Position {
		b.WriteByte(fieldDelimiter)
		writeEscaped(&b, v.format())
	}

	payload := []byte(b.String())
	sum, err := c.checksum(orderings, payload)
	if err != nil {
		return "", fmt.Errorf("cannot encode cursor: %w", err)
	}

	return _encoder.EncodeToString(append(payload, sum...)), nil
}

// Decode parses a token produced by Encode for the same orderings. The
// empty token decodes to a nil cursor. Any malformed, tampered or foreign
// token yields an error wrapping ErrInvalidCursor.
func (c *CursorCodec) Decode(orderings Orderings, token string) (*Cursor, error) {
	if len(token) == 0 {
		return nil, nil
	}

	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded cursor: %v", ErrInvalidCursor, err)
	}

	if len(raw) <= checksumSize {
		return nil, fmt.Errorf("%w: cursor is too short", ErrInvalidCursor)
	}

	payload, sum := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	expected, err := c.checksum(orderings, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if subtle.ConstantTimeCompare(sum, expected) != 1 {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidCursor)
	}

	fields, err := splitEscaped(string(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	traversal, ok := traversalFromMarker(fields[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown direction marker '%s'", ErrInvalidCursor, fields[0])
	}

	fields = fields[1:]
	if len(fields) != len(orderings) {
		return nil, fmt.Errorf("%w: cursor column number mismatch: got %d, want %d", ErrInvalidCursor, len(fields), len(orderings))
	}

	position := make(Position, 0, len(fields))
	for i, orderBy := range orderings {
		v, err := orderBy.Kind.parse(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: column '%s': %v", ErrInvalidCursor, orderBy.Column, err)
		}

		position = append(position, v)
	}

	return &Cursor{
		Position:  position,
		Traversal: traversal,
	}, nil
}

func (c *CursorCodec) checksum(orderings Orderings, payload []byte) ([]byte, error) {
	h, err := blake2b.New(checksumSize, c.secret)
	if err != nil {
		return nil, err
	}

	h.Write(orderingsDigest(orderings))
	h.Write(payload)

	return h.Sum(nil), nil
}

// orderingsDigest renders orderings as "<n>|col|dir|kind|...|". Every ordering
// contributes exactly three fields, so with the leading count the rendering
// is unambiguous.
func orderingsDigest(orderings Orderings) []byte {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(orderings)))
	for _, orderBy := range orderings {
		b.WriteByte(fieldDelimiter)
		writeEscaped(&b, orderBy.Column)
		b.WriteByte(fieldDelimiter)
		writeEscaped(&b, string(orderBy.Direction))
		b.WriteByte(fieldDelimiter)
		b.WriteString(orderBy.Kind.String())
	}
	b.WriteByte(fieldDelimiter)

	return []byte(b.String())
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == fieldDelimiter || s[i] == escapeByte {
			b.WriteByte(escapeByte)
		}

		b.WriteByte(s[i])
	}
}

// splitEscaped splits s on unescaped delimiters and unescapes every field.
// It works on bytes, so values that are not valid UTF-8 survive unchanged.
func splitEscaped(s string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		escaped bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch {
		case escaped:
			if ch != fieldDelimiter && ch != escapeByte {
				return nil, fmt.Errorf("invalid escape sequence at offset %d", i)
			}

			current.WriteByte(ch)
			escaped = false
		case ch == escapeByte:
			escaped = true
		case ch == fieldDelimiter:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if escaped {
		return nil, fmt.Errorf("dangling escape at the end of cursor")
	}

	return append(fields, current.String()), nil
}
