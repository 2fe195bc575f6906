package textdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		old     string
		new     string
		context int
		want    string
	}{
		{
			name: "equal",
			old:  "a\nb\n",
			new:  "a\nb\n",
			want: "",
		},
		{
			name:    "single change",
			old:     "a\nb\nc\n",
			new:     "a\nB\nc\n",
			context: 1,
			want:    "--- a/x\n+++ b/x\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
		},
		{
			name:    "distant changes split hunks",
			old:     "1\n2\n3\n4\n5\n6\n7\n8\n9\n",
			new:     "1\nX\n3\n4\n5\n6\n7\nY\n9\n",
			context: 1,
			want: "--- a/x\n+++ b/x\n" +
				"@@ -1,3 +1,3 @@\n 1\n-2\n+X\n 3\n" +
				"@@ -7,3 +7,3 @@\n 7\n-8\n+Y\n 9\n",
		},
		{
			name:    "close changes share a hunk",
			old:     "1\n2\n3\n4\n5\n",
			new:     "1\nX\n3\nY\n5\n",
			context: 1,
			want:    "--- a/x\n+++ b/x\n@@ -1,5 +1,5 @@\n 1\n-2\n+X\n 3\n-4\n+Y\n 5\n",
		},
		{
			name:    "missing trailing newline",
			old:     "a",
			new:     "b",
			context: 3,
			want:    "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n\\ No newline at end of file\n+b\n\\ No newline at end of file\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Unified("a/x", "b/x", tt.old, tt.new, tt.context))
		})
	}
}

func TestUnified_DefaultContext(t *testing.T) {
	t.Parallel()
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9\n"
	new := "1\n2\n3\n4\nX\n6\n7\n8\n9\n"
	want := "--- f\n+++ f\n@@ -2,7 +2,7 @@\n 2\n 3\n 4\n-5\n+X\n 6\n 7\n 8\n"
	assert.Equal(t, want, Unified("f", "f", old, new, -1))
}

func TestStats(t *testing.T) {
	t.Parallel()
	added, removed := Stats("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
}
