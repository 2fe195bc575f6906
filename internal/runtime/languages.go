package runtime

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-enry/go-enry/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".mts":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".hh":   "cpp",
	".cs":   "csharp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// enryToLanguage maps linguist language names to canonical names.
var enryToLanguage = map[string]string{
	"Go":         "go",
	"TypeScript": "typescript",
	"TSX":        "typescript",
	"JavaScript": "javascript",
	"Python":     "python",
	"Rust":       "rust",
	"C":          "c",
	"C++":        "cpp",
	"C#":         "csharp",
	"Java":       "java",
	"PHP":        "php",
	"Ruby":       "ruby",
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"c":          c.GetLanguage(),
			"cpp":        cpp.GetLanguage(),
			"csharp":     csharp.GetLanguage(),
			"java":       java.GetLanguage(),
			"php":        php.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		}
	})
}

// Languages returns the canonical names of all supported languages.
func Languages() []string {
	return []string{"c", "cpp", "csharp", "go", "java", "javascript", "php", "python", "ruby", "rust", "typescript"}
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// DetectLanguage is LanguageForFile with a content-based fallback. Headers
// (.h) are shared by C and C++, and files without a known extension may
// still be recognizable from a shebang or modeline; both cases ask enry.
func DetectLanguage(path string, content []byte) (string, bool) {
	lang, ok := LanguageForFile(path)
	if ok && strings.ToLower(filepath.Ext(path)) != ".h" {
		return lang, true
	}
	if len(content) == 0 {
		return lang, ok
	}
	if l, found := enryToLanguage[enry.GetLanguage(filepath.Base(path), content)]; found {
		if lang == "c" && l != "cpp" {
			return lang, true
		}
		return l, true
	}
	return lang, ok
}

// SkipPath reports whether path is vendored or generated code that should
// not be linted. content may be nil when only the path is known.
func SkipPath(path string, content []byte) bool {
	if enry.IsVendor(filepath.ToSlash(path)) {
		return true
	}
	return content != nil && enry.IsGenerated(path, content)
}

// ParserForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}
