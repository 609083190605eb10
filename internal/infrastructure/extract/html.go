package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// HTMLStrategy extracts visible text from saved web pages, which is how a
// fair share of downloaded norm texts arrive.
type HTMLStrategy struct{}

func NewHTMLStrategy() *HTMLStrategy { return &HTMLStrategy{} }

func (s *HTMLStrategy) Name() string { return "html" }

func (s *HTMLStrategy) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

func (s *HTMLStrategy) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "open html", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "parse html", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			case "p", "div", "br", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteString("\n")
			case "td", "th":
				sb.WriteString(" | ")
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return sb.String(), nil
}
