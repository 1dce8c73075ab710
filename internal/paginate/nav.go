package paginate

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RewriteNav replaces the page-list nav of an EPUB 3 navigation document
// with one rebuilt from the page assignments. The nav is inserted hidden, as
// it augments rather than replaces primary navigation. The document is
// mutated in place and marked dirty.
func RewriteNav(doc *Document, assignments []Assignment) error {
	body := doc.Doc.Find("body")
	if body.Length() == 0 {
		return fmt.Errorf("malformed navigation document %s: no body element", doc.Path)
	}

	// Drop any existing page-list nav wholesale.
	doc.Doc.Find("nav").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("epub:type"); typ == "page-list" {
			s.Remove()
		}
	})

	var b strings.Builder
	b.WriteString(`<nav epub:type="page-list" hidden=""><ol>`)
	for _, a := range assignments {
		if a.Item == nil {
			return fmt.Errorf("internal error: page %d has no owning manifest item", a.Page)
		}
		href := relHref(doc.Path, a.Item.Href)
		fmt.Fprintf(&b, `<li><a href="%s#pg%d">%d</a></li>`, html.EscapeString(href), a.Page, a.Page)
	}
	b.WriteString("</ol></nav>")

	body.AppendHtml(b.String())
	doc.Dirty = true
	return nil
}
