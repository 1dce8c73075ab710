package paginate

import (
	"strconv"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const testNavDoc = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Navigation</title></head>
<body>
<nav epub:type="toc"><ol><li><a href="chapter1.xhtml">Chapter 1</a></li></ol></nav>
<nav epub:type="page-list"><ol><li><a href="stale.xhtml#p9">9</a></li></ol></nav>
</body>
</html>`

func TestRewriteNav(t *testing.T) {
	doc := parseDocument(t, "OEBPS/nav.xhtml", testNavDoc)

	if err := RewriteNav(doc, testAssignments()); err != nil {
		t.Fatalf("RewriteNav() failed: %v", err)
	}
	if !doc.Dirty {
		t.Error("rewritten navigation document should be dirty")
	}

	var pageLists []*goquery.Selection
	doc.Doc.Find("nav").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("epub:type"); typ == "page-list" {
			pageLists = append(pageLists, s)
		}
	})
	if len(pageLists) != 1 {
		t.Fatalf("page-list nav count = %d, want 1 (old one replaced)", len(pageLists))
	}
	nav := pageLists[0]

	if _, hidden := nav.Attr("hidden"); !hidden {
		t.Error("replacement page-list nav should be hidden")
	}

	links := nav.Find("ol li a")
	if links.Length() != 2 {
		t.Fatalf("link count = %d, want 2", links.Length())
	}

	wantHrefs := []string{"chapter1.xhtml#pg1", "text/chapter2.xhtml#pg2"}
	links.Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href != wantHrefs[i] {
			t.Errorf("link %d href = %q, want %q", i, href, wantHrefs[i])
		}
		if a.Text() != strconv.Itoa(i+1) {
			t.Errorf("link %d text = %q, want page number", i, a.Text())
		}
	})

	if doc.Doc.Find(`a[href="stale.xhtml#p9"]`).Length() != 0 {
		t.Error("stale page-list entries should be removed, not merged")
	}

	// The toc nav is untouched
	toc := doc.Doc.Find("nav").FilterFunction(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("epub:type")
		return typ == "toc"
	})
	if toc.Length() != 1 || toc.Find("a").Length() != 1 {
		t.Error("toc nav should be preserved")
	}
}

func TestRewriteNav_MissingOwnerIsFatal(t *testing.T) {
	doc := parseDocument(t, "OEBPS/nav.xhtml", testNavDoc)
	if err := RewriteNav(doc, []Assignment{{Page: 1, Item: nil}}); err == nil {
		t.Fatal("RewriteNav() should fail loudly when a page has no owner")
	}
}
