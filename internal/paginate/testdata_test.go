package paginate

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"epubpages/internal/epub"
)

// writeTestEPUB writes a synthetic EPUB with the standard scaffolding
// (stored mimetype, container.xml pointing at OEBPS/content.opf) plus the
// given files, and returns its path.
func writeTestEPUB(t *testing.T, files map[string]string) string {
	t.Helper()
	epubPath := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatalf("failed to create test epub: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	mw, err := w.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		t.Fatalf("failed to create mimetype: %v", err)
	}
	mw.Write([]byte("application/epub+zip"))

	cw, err := w.Create("META-INF/container.xml")
	if err != nil {
		t.Fatalf("failed to create container.xml: %v", err)
	}
	cw.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`))

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		fw.Write([]byte(files[name]))
	}

	return epubPath
}

// openTestEPUB opens a fixture package and parses its OPF.
func openTestEPUB(t *testing.T, path string) (*epub.Reader, *epub.OPF) {
	t.Helper()
	reader, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	opfData, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		t.Fatalf("ReadFile(OPF) failed: %v", err)
	}
	opf, err := epub.ParseOPF(opfData, filepath.Dir(reader.OPFPath()))
	if err != nil {
		t.Fatalf("ParseOPF failed: %v", err)
	}
	return reader, opf
}

// opfXML builds a minimal OPF document around the given manifest and spine
// fragments.
func opfXML(manifest, spine string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>` + manifest + `</manifest>
  <spine toc="ncx">` + spine + `</spine>
</package>`
}

// xhtml wraps body markup in a minimal XHTML document.
func xhtml(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Test</title></head>
<body>` + body + `</body>
</html>`
}

// para builds a paragraph with exactly n words.
func para(n int) string {
	return "<p>" + strings.TrimSpace(strings.Repeat("word ", n)) + "</p>"
}

// parseDocument parses markup into a cache Document without a container.
func parseDocument(t *testing.T, path, markup string) *Document {
	t.Helper()
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(markup)))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	return &Document{Path: path, Doc: parsed}
}
