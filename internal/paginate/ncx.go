package paginate

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"
)

// RewriteNCX regenerates the pageList of an NCX navigation table from the
// page assignments. The two dtb page-count metas are upserted and any
// pre-existing pageList is replaced wholesale. ncxPath is the container path
// of the NCX itself, used to relativize content links.
func RewriteNCX(data []byte, assignments []Assignment, pageCount int, ncxPath string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse NCX %s: %w", ncxPath, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("failed to parse NCX %s: no root element", ncxPath)
	}

	count := strconv.Itoa(pageCount)
	head := root.SelectElement("head")
	if head == nil {
		head = root.CreateElement("head")
	}
	upsertMeta(head, "dtb:totalPageCount", count)
	upsertMeta(head, "dtb:maxPageNumber", count)

	if old := root.SelectElement("pageList"); old != nil {
		root.RemoveChild(old)
	}

	pageList := root.CreateElement("pageList")
	label := pageList.CreateElement("navLabel")
	label.CreateElement("text").SetText("Pages")

	for _, a := range assignments {
		if a.Item == nil {
			return nil, fmt.Errorf("internal error: page %d has no owning manifest item", a.Page)
		}
		n := strconv.Itoa(a.Page)

		target := pageList.CreateElement("pageTarget")
		target.CreateAttr("type", "normal")
		target.CreateAttr("id", "pg"+n)
		target.CreateAttr("value", n)
		target.CreateAttr("playOrder", n)

		targetLabel := target.CreateElement("navLabel")
		targetLabel.CreateElement("text").SetText(n)

		content := target.CreateElement("content")
		content.CreateAttr("src", relHref(ncxPath, a.Item.Href)+"#pg"+n)
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize NCX %s: %w", ncxPath, err)
	}
	return out, nil
}

// upsertMeta updates the content of the head meta with the given name,
// creating the element if absent. Never duplicates.
func upsertMeta(head *etree.Element, name, content string) {
	for _, meta := range head.SelectElements("meta") {
		if meta.SelectAttrValue("name", "") == name {
			meta.CreateAttr("content", content)
			return
		}
	}
	meta := head.CreateElement("meta")
	meta.CreateAttr("name", name)
	meta.CreateAttr("content", content)
}

// relHref relativizes a container path against the directory of the
// document that will link to it.
func relHref(fromPath, toPath string) string {
	fromDir := path.Dir(fromPath)
	if fromDir == "." {
		return toPath
	}
	rel, err := filepath.Rel(fromDir, toPath)
	if err != nil {
		return toPath
	}
	return filepath.ToSlash(rel)
}
