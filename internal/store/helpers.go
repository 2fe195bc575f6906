package store

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

// marshalSpans encodes additional locations for storage.
func marshalSpans(spans []Span) ([]byte, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	b, err := msgpack.Marshal(spans)
	if err != nil {
		return nil, fmt.Errorf("encode locations: %w", err)
	}
	return b, nil
}

// unmarshalSpans decodes a blob written by marshalSpans.
func unmarshalSpans(b []byte) ([]Span, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var spans []Span
	if err := msgpack.Unmarshal(b, &spans); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return spans, nil
}
