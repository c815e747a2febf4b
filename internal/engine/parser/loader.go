// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
)

// GrammarLoader owns the compiled-in grammars. Compiled bundles are parsed
// with the JavaScript grammar and typings with the TypeScript one.
type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader(enabled ...string) (*GrammarLoader, error) {
	if len(enabled) == 0 {
		enabled = []string{LanguageJavaScript, LanguageTypeScript}
	}
	gl := &GrammarLoader{languages: make(map[string]*sitter.Language, len(enabled))}
	for _, langID := range enabled {
		switch langID {
		case LanguageJavaScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case LanguageTypeScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		default:
			return nil, fmt.Errorf("language %q is not compiled into this binary", langID)
		}
	}
	return gl, nil
}

func (gl *GrammarLoader) Language(langID string) (*sitter.Language, bool) {
	lang, ok := gl.languages[langID]
	return lang, ok
}

func (gl *GrammarLoader) Languages() []string {
	out := make([]string, 0, len(gl.languages))
	for id := range gl.languages {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
