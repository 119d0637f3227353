package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlExpr       = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|li|a\s|br|article|section|html|body|table)\b`)
	spaceExpr      = regexp.MustCompile(`[ \t\r\n]+`)
	blockSelectors = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote"
)

// NormalizeContent turns HTML answers into Markdown-ish plain text and returns
// the absolute links it found so they can be kept as sources. Text that is not
// HTML is only trimmed.
func NormalizeContent(text string) (string, []string) {
	text = strings.TrimSpace(text)
	if !htmlExpr.MatchString(text) {
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text, nil
	}
	doc.Find("script, style").Remove()

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			links = append(links, href)
		}
	})

	var blocks []string
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		if s.Is("li") && s.ParentsFiltered("li").Length() > 0 {
			return
		}
		line := collapse(s.Text())
		if line == "" {
			return
		}
		blocks = append(blocks, prefixFor(s)+line)
	})

	if len(blocks) == 0 {
		return collapse(doc.Text()), links
	}
	return strings.Join(blocks, "\n\n"), links
}

func prefixFor(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "h1":
		return "# "
	case "h2":
		return "## "
	case "h3", "h4", "h5", "h6":
		return "### "
	case "li":
		return "- "
	case "blockquote":
		return "> "
	default:
		return ""
	}
}

func collapse(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}
