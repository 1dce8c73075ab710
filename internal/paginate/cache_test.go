package paginate

import (
	"errors"
	"testing"
)

func TestCache_ParsesOnceAndIgnoresCase(t *testing.T) {
	path := singleChapterEPUB(t, para(10))
	reader, _ := openTestEPUB(t, path)

	cache := NewCache(reader)
	first, err := cache.Get("OEBPS/chapter1.xhtml")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	variant, err := cache.Get("oebps/Chapter1.XHTML")
	if err != nil {
		t.Fatalf("Get() with case-variant href failed: %v", err)
	}
	if first != variant {
		t.Error("case-variant hrefs should return the identical cached document")
	}

	again, err := cache.Get("OEBPS/chapter1.xhtml")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if first != again {
		t.Error("repeated Get() should return the identical cached document")
	}
}

func TestCache_MissingResource(t *testing.T) {
	path := singleChapterEPUB(t, para(10))
	reader, _ := openTestEPUB(t, path)

	cache := NewCache(reader)
	_, err := cache.Get("OEBPS/missing.xhtml")
	if !errors.Is(err, ErrNotInContainer) {
		t.Fatalf("Get() error = %v, want ErrNotInContainer", err)
	}
}
