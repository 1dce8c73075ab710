package paginate

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"epubpages/internal/epub"
)

// Assignment maps one page number to the manifest item whose document holds
// its break marker. The ordered assignment slice is the single source of
// truth for both navigation rewrites.
type Assignment struct {
	Page int
	Item *epub.ManifestItem
}

// Walker iterates the spine in reading order, accumulates word counts, and
// in commit mode inserts page-break markers into the content documents.
type Walker struct {
	wordsPerPage int
	commit       bool

	// Words is the total number of words seen across all counted paragraphs.
	Words int
	// Assignments lists every assigned page in ascending order.
	Assignments []Assignment

	// carry is the running word total since the last page break. A break
	// subtracts the threshold instead of resetting to zero, so the
	// remainder carries into the next page.
	carry int
	page  int
}

// NewWalker creates a walker. In commit mode the walk mutates documents;
// otherwise it only counts.
func NewWalker(wordsPerPage int, commit bool) *Walker {
	return &Walker{
		wordsPerPage: wordsPerPage,
		commit:       commit,
		page:         1,
	}
}

// PageCount returns the number of pages assigned so far.
func (w *Walker) PageCount() int {
	return w.page - 1
}

// Walk processes every spine entry in order. Spine ids without a manifest
// item and manifest hrefs without a container entry are skipped; a content
// document without a body fails the whole run.
func (w *Walker) Walk(opf *epub.OPF, cache *Cache) error {
	for _, spineItem := range opf.Spine {
		item, ok := opf.ItemByID(spineItem.IDRef)
		if !ok {
			log.Printf("warning: spine item %q not found in manifest, skipping", spineItem.IDRef)
			continue
		}

		doc, err := cache.Get(item.Href)
		if errors.Is(err, ErrNotInContainer) {
			log.Printf("warning: %s not present in container, skipping", item.Href)
			continue
		}
		if err != nil {
			return err
		}

		if err := w.walkDocument(item, doc); err != nil {
			return err
		}
	}
	return nil
}

// walkDocument counts the document's paragraphs and places page breaks.
func (w *Walker) walkDocument(item *epub.ManifestItem, doc *Document) error {
	body := doc.Doc.Find("body")
	if body.Length() == 0 {
		return fmt.Errorf("malformed content document %s: no body element", doc.Path)
	}

	body.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := p.Text()
		if len(text) <= 1 {
			return
		}

		words := len(strings.Fields(text))
		w.Words += words
		w.carry += words

		if !w.commit {
			return
		}

		for w.carry >= w.wordsPerPage {
			w.carry -= w.wordsPerPage
			item.Pages = append(item.Pages, w.page)
			w.Assignments = append(w.Assignments, Assignment{Page: w.page, Item: item})
			p.AppendNodes(pageMarker(w.page))
			w.page++
			doc.Dirty = true
		}
	})

	return nil
}

// pageMarker builds the page-break span appended to the paragraph that
// crossed the boundary: <span epub:type="pagebreak" role="doc-pagebreak"
// id="pgN" aria-label="N"/>.
func pageMarker(page int) *html.Node {
	n := strconv.Itoa(page)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "epub:type", Val: "pagebreak"},
			{Key: "role", Val: "doc-pagebreak"},
			{Key: "id", Val: "pg" + n},
			{Key: "aria-label", Val: n},
		},
	}
}
