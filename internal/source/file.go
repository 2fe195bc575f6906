package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"

	"github.com/jward/plumbline/internal/align"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// File is an immutable source buffer with a line index. Content is kept
// byte for byte as read, so offsets stay valid for writing edits back.
type File struct {
	Path    string
	Content []byte
	// Hash is the hex SHA-256 of Content.
	Hash string

	lines    []int // offset of every '\n'
	mode     ColumnMode
	tabWidth int
	hadBOM   bool
}

// Option configures a File.
type Option func(*File)

// WithColumnMode sets how columns are counted.
func WithColumnMode(mode ColumnMode) Option {
	return func(f *File) { f.mode = mode }
}

// WithTabWidth sets the tab stop distance used in Display mode.
func WithTabWidth(n int) Option {
	return func(f *File) { f.tabWidth = n }
}

// New wraps content read from path.
func New(path string, content []byte, opts ...Option) *File {
	f := &File{
		Path:     path,
		Content:  content,
		Hash:     HashContent(content),
		tabWidth: DefaultTabWidth,
		hadBOM:   bytes.HasPrefix(content, bom),
	}
	for i, b := range content {
		if b == '\n' {
			f.lines = append(f.lines, i)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load reads path from disk.
func Load(path string, opts ...Option) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return New(path, content, opts...), nil
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// Mode returns the column mode of the file.
func (f *File) Mode() ColumnMode { return f.mode }

// LineCount returns the number of lines. A trailing newline does not start
// a new line of its own.
func (f *File) LineCount() int {
	n := len(f.lines) + 1
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] == '\n' {
		n--
	}
	return n
}

// LineStart returns the offset of the first byte of line n (zero-based).
func (f *File) LineStart(n int) int {
	switch {
	case n <= 0:
		return 0
	case n > len(f.lines):
		return len(f.Content)
	}
	return f.lines[n-1] + 1
}

// Line returns the text of line n without its line terminator.
func (f *File) Line(n int) string {
	start := f.LineStart(n)
	end := len(f.Content)
	if n >= 0 && n < len(f.lines) {
		end = f.lines[n]
	}
	if start > end {
		return ""
	}
	return string(bytes.TrimSuffix(f.Content[start:end], []byte{'\r'}))
}

// Position resolves a byte offset to a line and a column in the file's
// column mode. Offsets are clamped to the buffer.
func (f *File) Position(offset int) align.Position {
	offset = min(max(offset, 0), len(f.Content))
	line := sort.SearchInts(f.lines, offset)
	start := f.LineStart(line)
	if line == 0 && f.hadBOM && offset >= len(bom) {
		start = len(bom)
	}
	return align.Position{
		Offset: offset,
		Line:   line,
		Column: f.mode.width(f.Content[start:offset], f.tabWidth),
	}
}

// Span converts a byte range as reported by tree-sitter into a Span.
func (f *File) Span(start, end uint32) align.Span {
	return align.Span{
		Start: f.Position(safecast.MustConv[int](start)),
		End:   f.Position(safecast.MustConv[int](end)),
	}
}
