package paginate

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"

	"epubpages/internal/epub"
)

// WriteEPUB assembles the output package. Entries are written in the
// original archive order: replaced documents are re-compressed, everything
// else is copied raw so untouched files stay byte-identical to the source.
// replacements is keyed by lower-cased container path. On any failure the
// partial output file is removed.
func WriteEPUB(reader *epub.Reader, outPath string, replacements map[string][]byte) (err error) {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outPath)
		}
	}()

	w := zip.NewWriter(f)
	for _, entry := range reader.Entries() {
		key := strings.ToLower(strings.TrimPrefix(entry.Name, "./"))
		if data, ok := replacements[key]; ok {
			if err = writeEntry(w, entry.Name, data); err != nil {
				return err
			}
			continue
		}
		if err = copyRaw(w, entry); err != nil {
			return err
		}
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to finalize output file: %w", err)
	}
	return nil
}

// writeEntry writes a replaced entry under its original name.
func writeEntry(w *zip.Writer, name string, data []byte) error {
	fw, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// copyRaw transfers an entry without recompressing it. This also preserves
// the stored (uncompressed) mimetype entry exactly as required.
func copyRaw(w *zip.Writer, entry *zip.File) error {
	rc, err := entry.OpenRaw()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
	}

	header := entry.FileHeader
	fw, err := w.CreateRaw(&header)
	if err != nil {
		return fmt.Errorf("failed to copy entry %s: %w", entry.Name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("failed to copy entry %s: %w", entry.Name, err)
	}
	return nil
}
