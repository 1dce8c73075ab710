package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader provides access to EPUB container contents.
// Entry lookup is case-insensitive: the container is treated as a
// case-preserving but case-insensitive file store.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File // keyed by normalized (lower-cased) path
	opfPath   string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrNoRootfile         = errors.New("no rootfile reference in container.xml")
	ErrOPFNotFound        = errors.New("OPF file not found in container")
	ErrFileNotFound       = errors.New("file not found in container")
)

// Open opens an EPUB file and validates its structure
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	reader := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		reader.files[normalizePath(f.Name)] = f
	}

	// Validate mimetype
	if err := reader.validateMimetype(); err != nil {
		zr.Close()
		return nil, err
	}

	// Parse container.xml to get OPF path
	if err := reader.parseContainer(); err != nil {
		zr.Close()
		return nil, err
	}

	return reader, nil
}

// Close closes the EPUB reader
func (r *Reader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the path to the OPF file
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Entries returns all container entries in their original archive order.
func (r *Reader) Entries() []*zip.File {
	return r.zipReader.File
}

// Has reports whether the container holds an entry for path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of a file from the EPUB.
// Returns an error wrapping ErrFileNotFound if no entry matches the path.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	f, ok := r.files[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// validateMimetype checks that the mimetype file exists and is valid
func (r *Reader) validateMimetype() error {
	f, ok := r.files["mimetype"]
	if !ok {
		return ErrMimetypeNotFound
	}

	// Check that mimetype is not compressed
	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	// Read and validate content
	content, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}

	if string(content) != "application/epub+zip" {
		return ErrInvalidMimetype
	}

	return nil
}

// parseContainer parses container.xml to extract OPF path
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	// Find the OPF file path
	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = strings.TrimPrefix(rf.FullPath, "./")
			return nil
		}
	}

	// If no media-type match, use the first one
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = strings.TrimPrefix(c.Rootfiles.Rootfile[0].FullPath, "./")
		return nil
	}

	return ErrNoRootfile
}

// normalizePath normalizes file paths for case-insensitive lookup
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	return strings.ToLower(path)
}
