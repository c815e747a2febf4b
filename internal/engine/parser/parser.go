// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ngreflect/internal/core/errors"
	"ngreflect/internal/engine/syntax"
	"ngreflect/internal/shared/observability"
)

// Parser turns source files into syntax trees using pooled parsers.
// It is safe for concurrent use.
type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{loader: loader, pools: make(map[string]*ParserPool)}
	for _, id := range loader.Languages() {
		lang, _ := loader.Language(id)
		p.pools[id] = NewParserPool(lang)
	}
	return p
}

// DetectLanguage maps a path to a grammar ID, or "" when unsupported.
func (p *Parser) DetectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	var lang string
	switch {
	case strings.HasSuffix(base, ".d.ts"), strings.HasSuffix(base, ".ts"):
		lang = LanguageTypeScript
	case strings.HasSuffix(base, ".js"), strings.HasSuffix(base, ".mjs"), strings.HasSuffix(base, ".cjs"):
		lang = LanguageJavaScript
	default:
		return ""
	}
	if _, ok := p.pools[lang]; !ok {
		return ""
	}
	return lang
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.DetectLanguage(path) != ""
}

// ParseFile parses content under the grammar implied by path. The returned
// file owns its tree and must be closed by the caller.
func (p *Parser) ParseFile(path string, content []byte) (*syntax.File, error) {
	lang := p.DetectLanguage(path)
	if lang == "" {
		err := errors.New(errors.CodeNotSupported, "unsupported file type")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return p.ParseAs(lang, path, content)
}

// ParseAs parses content with an explicit grammar.
func (p *Parser) ParseAs(lang, path string, content []byte) (*syntax.File, error) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	start := time.Now()
	sp := pool.Get()
	tree := sp.Parse(content, nil)
	pool.Put(sp)
	if tree == nil {
		err := errors.New(errors.CodeParseFailed, "parse failed")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	observability.FilesParsedTotal.WithLabelValues(lang).Inc()

	return syntax.NewFile(path, lang, content, tree), nil
}

// ReadFile reads and parses a file from disk.
func (p *Parser) ReadFile(path string) (*syntax.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "read source file")
	}
	return p.ParseFile(path, content)
}
