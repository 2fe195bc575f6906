package runtime

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned when no grammar exists for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Parse parses src with the grammar of lang. The caller owns the returned
// tree and must Close it.
func Parse(ctx context.Context, src []byte, lang string) (*sitter.Tree, error) {
	grammar, ok := ParserForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("parse: %w %q", ErrUnsupportedLanguage, lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: tree-sitter parse failed: %w", err)
	}
	return tree, nil
}
