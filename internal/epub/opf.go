package epub

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// ncxMediaType is the manifest media type of an NCX navigation table.
const ncxMediaType = "application/x-dtbncx+xml"

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfManifest represents the manifest section
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// opfSpine represents the spine section
type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine
type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// opfGuide represents the optional guide section
type opfGuide struct {
	References []opfReference `xml:"reference"`
}

// opfReference represents a reference in the guide
type opfReference struct {
	Type  string `xml:"type,attr"`
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// ParseOPF parses an OPF file content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OEBPS/").
// A manifest item missing id, href, or media-type, or an itemref missing
// idref, makes the package malformed and fails the parse.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		itemsByID: make(map[string]*ManifestItem),
	}

	// Parse manifest, preserving document order
	for i, item := range pkg.Manifest.Items {
		if item.ID == "" || item.Href == "" || item.MediaType == "" {
			return nil, fmt.Errorf("manifest item %d is missing a required attribute (id, href, or media-type)", i)
		}

		manifestItem := &ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}

		// Parse properties (space-separated)
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}

		opf.Manifest = append(opf.Manifest, manifestItem)
		opf.itemsByID[item.ID] = manifestItem
	}

	// Parse spine
	for i, itemRef := range pkg.Spine.ItemRefs {
		if itemRef.IDRef == "" {
			return nil, fmt.Errorf("spine itemref %d is missing the idref attribute", i)
		}

		linear := true
		if itemRef.Linear == "no" {
			linear = false
		}

		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: linear,
		})
	}

	// Parse guide (informational)
	for _, ref := range pkg.Guide.References {
		opf.Guide = append(opf.Guide, GuideRef{
			Type:  ref.Type,
			Href:  joinPath(opfDir, ref.Href),
			Title: ref.Title,
		})
	}

	opf.NCXPath = resolveNCXPath(opf, pkg.Spine.Toc)
	opf.NavPath = resolveNavPath(opf)

	return opf, nil
}

// resolveNCXPath resolves the NCX document path from the spine toc attribute,
// falling back to the manifest item with the NCX media type.
func resolveNCXPath(opf *OPF, tocID string) string {
	if tocID != "" {
		if item, ok := opf.itemsByID[tocID]; ok {
			return item.Href
		}
	}
	for _, item := range opf.Manifest {
		if item.MediaType == ncxMediaType {
			return item.Href
		}
	}
	return ""
}

// resolveNavPath resolves the EPUB 3 navigation document from the manifest
// item carrying the "nav" property, falling back to an href ending in
// nav.xhtml for packages that omit the property.
func resolveNavPath(opf *OPF) string {
	for _, item := range opf.Manifest {
		for _, prop := range item.Properties {
			if prop == "nav" {
				return item.Href
			}
		}
	}
	for _, item := range opf.Manifest {
		if strings.HasSuffix(strings.ToLower(item.Href), "nav.xhtml") {
			return item.Href
		}
	}
	return ""
}

// joinPath joins OPF directory with a relative path
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return filepath.ToSlash(filepath.Join(base, rel))
}
