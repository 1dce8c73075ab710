package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Manifest []*ManifestItem
	Spine    []SpineItem
	Guide    []GuideRef
	NCXPath  string
	NavPath  string

	itemsByID map[string]*ManifestItem
}

// ItemByID looks up a manifest item by its id.
func (opf *OPF) ItemByID(id string) (*ManifestItem, bool) {
	item, ok := opf.itemsByID[id]
	return item, ok
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string

	// Pages holds the page numbers whose break markers were inserted into
	// this item's document, in ascending order. Populated during pagination.
	Pages []int
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideRef represents a reference in the optional guide section.
// Informational only; pagination does not consume it.
type GuideRef struct {
	Type  string
	Href  string
	Title string
}
