package paginate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"epubpages/internal/epub"
)

// ErrNotInContainer signals that a manifest href has no matching container
// entry. Callers treat it as "nothing to paginate here", not as a failure.
var ErrNotInContainer = errors.New("resource not present in container")

// Document is a cached, mutable parse of one content file.
type Document struct {
	Path  string            // container path, as referenced by the manifest
	Doc   *goquery.Document // parsed markup tree
	Dirty bool              // set when the tree has been structurally modified
}

// Bytes serializes the document tree back to markup.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Doc.Get(0)); err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", d.Path, err)
	}
	return buf.Bytes(), nil
}

// Cache lazily parses content documents from the container, at most once per
// file. Keys are case-insensitive, so case-variant hrefs resolve to the same
// Document instance.
type Cache struct {
	reader *epub.Reader
	docs   map[string]*Document
}

// NewCache creates an empty cache over the given container.
func NewCache(reader *epub.Reader) *Cache {
	return &Cache{
		reader: reader,
		docs:   make(map[string]*Document),
	}
}

// Get returns the parsed document for href, parsing it on first use.
// Returns ErrNotInContainer if the container has no entry for href.
func (c *Cache) Get(href string) (*Document, error) {
	key := strings.ToLower(strings.TrimPrefix(href, "./"))
	if doc, ok := c.docs[key]; ok {
		return doc, nil
	}

	data, err := c.reader.ReadFile(href)
	if err != nil {
		if errors.Is(err, epub.ErrFileNotFound) {
			return nil, ErrNotInContainer
		}
		return nil, err
	}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", href, err)
	}

	doc := &Document{Path: href, Doc: parsed}
	c.docs[key] = doc
	return doc, nil
}

// Dirty returns the documents whose trees were modified, in no particular
// order. Only these need to be re-serialized on write-back.
func (c *Cache) Dirty() []*Document {
	var dirty []*Document
	for _, doc := range c.docs {
		if doc.Dirty {
			dirty = append(dirty, doc)
		}
	}
	return dirty
}
