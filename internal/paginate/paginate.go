// Package paginate computes synthetic page boundaries for an EPUB from word
// counts across its reading order, injects page-break markers into the
// content documents, and regenerates the NCX pageList and the EPUB 3
// page-list nav so that both agree with the embedded markers.
package paginate

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"epubpages/internal/epub"
)

// Options holds options for a pagination run.
type Options struct {
	InputPath    string
	OutputPath   string
	WordsPerPage int
	Commit       bool
}

// Result reports the outcome of a pagination run.
type Result struct {
	Words      int
	Pages      int
	OutputPath string // empty unless a file was written
}

// Pipeline orchestrates one pagination run over one package. It is not safe
// for concurrent use against the same package.
type Pipeline struct {
	Options Options
}

// NewPipeline creates a new pagination pipeline.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{Options: opts}
}

// Run executes the pagination run. Without Commit it is a pure read that
// only reports totals; with Commit it writes a new package to OutputPath,
// leaving the input untouched. No output file is produced on error.
func (p *Pipeline) Run() (*Result, error) {
	if p.Options.WordsPerPage <= 0 {
		return nil, fmt.Errorf("words per page must be positive, got %d", p.Options.WordsPerPage)
	}

	reader, opf, err := p.parseEPUB()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	cache := NewCache(reader)
	walker := NewWalker(p.Options.WordsPerPage, p.Options.Commit)
	if err := walker.Walk(opf, cache); err != nil {
		return nil, err
	}

	result := &Result{Words: walker.Words}
	if !p.Options.Commit {
		// Carry-forward accumulation makes the projected count equal the
		// number of markers a commit run would insert.
		result.Pages = walker.Words / p.Options.WordsPerPage
		return result, nil
	}

	result.Pages = walker.PageCount()

	replacements, err := p.collectReplacements(reader, opf, cache, walker)
	if err != nil {
		return nil, err
	}

	if err := WriteEPUB(reader, p.Options.OutputPath, replacements); err != nil {
		return nil, err
	}
	result.OutputPath = p.Options.OutputPath
	return result, nil
}

// parseEPUB opens the package and parses its OPF.
func (p *Pipeline) parseEPUB() (*epub.Reader, *epub.OPF, error) {
	reader, err := epub.Open(p.Options.InputPath)
	if err != nil {
		return nil, nil, err
	}

	opfData, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		reader.Close()
		if errors.Is(err, epub.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", epub.ErrOPFNotFound, reader.OPFPath())
		}
		return nil, nil, fmt.Errorf("failed to read OPF: %w", err)
	}

	opf, err := epub.ParseOPF(opfData, filepath.Dir(reader.OPFPath()))
	if err != nil {
		reader.Close()
		return nil, nil, err
	}

	return reader, opf, nil
}

// collectReplacements runs the navigation rewrites and serializes every
// document mutated during the run, keyed by normalized container path.
func (p *Pipeline) collectReplacements(reader *epub.Reader, opf *epub.OPF, cache *Cache, walker *Walker) (map[string][]byte, error) {
	replacements := make(map[string][]byte)

	// Both navigation rewrites read only the assignment slice; neither is
	// run when no pages were assigned.
	if walker.PageCount() > 0 {
		ncx, err := p.rewriteNCX(reader, opf, walker)
		if err != nil {
			return nil, err
		}
		if ncx != nil {
			replacements[replacementKey(opf.NCXPath)] = ncx
		}

		if err := p.rewriteNav(opf, cache, walker); err != nil {
			return nil, err
		}
	}

	for _, doc := range cache.Dirty() {
		data, err := doc.Bytes()
		if err != nil {
			return nil, err
		}
		replacements[replacementKey(doc.Path)] = data
	}

	return replacements, nil
}

// rewriteNCX regenerates the NCX pageList. Returns nil bytes when the
// package has no NCX; that artifact is simply not produced.
func (p *Pipeline) rewriteNCX(reader *epub.Reader, opf *epub.OPF, walker *Walker) ([]byte, error) {
	if opf.NCXPath == "" || !reader.Has(opf.NCXPath) {
		return nil, nil
	}
	data, err := reader.ReadFile(opf.NCXPath)
	if err != nil {
		return nil, err
	}
	return RewriteNCX(data, walker.Assignments, walker.PageCount(), opf.NCXPath)
}

// rewriteNav regenerates the page-list nav in the navigation document,
// if the package has one. The document is mutated through the cache so the
// rewrite composes with any page markers inserted into it during the walk.
func (p *Pipeline) rewriteNav(opf *epub.OPF, cache *Cache, walker *Walker) error {
	if opf.NavPath == "" {
		return nil
	}
	doc, err := cache.Get(opf.NavPath)
	if errors.Is(err, ErrNotInContainer) {
		log.Printf("warning: navigation document %s not present in container, skipping", opf.NavPath)
		return nil
	}
	if err != nil {
		return err
	}
	return RewriteNav(doc, walker.Assignments)
}

func replacementKey(path string) string {
	return strings.ToLower(strings.TrimPrefix(path, "./"))
}
