package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var jobDescriptionEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(upperStrongTransformer{}, 100)),
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// angle brackets are escaped up front so raw HTML in model output shows as text.
var htmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// RenderJobDescription converts generated text into safe HTML: **Label** becomes an
// upper-cased <strong>, "- " lines become list items and single newlines become <br />.
func RenderJobDescription(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := jobDescriptionEngine.Convert([]byte(htmlEscaper.Replace(source)), &buf); err != nil {
		return "<p>" + strings.ReplaceAll(html.EscapeString(source), "\n", "<br />") + "</p>"
	}
	return strings.TrimSpace(buf.String())
}

// upperStrongTransformer upper-cases the plain text inside **strong** spans.
type upperStrongTransformer struct{}

func (upperStrongTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		em, ok := n.(*ast.Emphasis)
		if !ok || em.Level != 2 {
			return ast.WalkContinue, nil
		}
		for child := em.FirstChild(); child != nil; {
			next := child.NextSibling()
			if t, ok := child.(*ast.Text); ok {
				upper := ast.NewString(bytes.ToUpper(t.Segment.Value(src)))
				em.ReplaceChild(em, child, upper)
			}
			child = next
		}
		return ast.WalkSkipChildren, nil
	})
}
