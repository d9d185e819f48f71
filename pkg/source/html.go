package source

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// htmlText returns the visible text of an HTML document, one text node per
// line. Scripts, styles and similar non-content elements are dropped.
func htmlText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return selectionText(doc.Selection), nil
}

// readableText lets go-readability find the main article, then extracts the
// text of that distilled content.
func readableText(r io.Reader, name string) (string, error) {
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(name)}

	parser := readability.NewParser()
	article, err := parser.Parse(r, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", fmt.Errorf("failed to parse article HTML: %w", err)
	}

	var sb strings.Builder
	if title := strings.TrimSpace(article.Title); title != "" {
		sb.WriteString(title)
		sb.WriteByte('\n')
	}
	sb.WriteString(selectionText(doc.Selection))
	return sb.String(), nil
}

func selectionText(sel *goquery.Selection) string {
	sel.Find("script,style,noscript,template").Remove()

	var sb strings.Builder
	sel.Find("*").AddBack().Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "#text" {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	})
	return sb.String()
}
