package search

import (
	"context"
	"testing"
)

func TestIndexPageAndSearch(t *testing.T) {
	idx, err := OpenMemory(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.IndexPage(ctx, "https://example.com/", "/out/example.com/index.md", "# Welcome\n\nThis page talks about gophers and tooling."); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexPage(ctx, "https://other.example/", "/out/other.example/index.md", "# Other\n\nNothing relevant here."); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, "gophers", "", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].URL != "https://example.com/" {
		t.Errorf("got url %q", hits[0].URL)
	}
}

func TestIndexPageDomainFilter(t *testing.T) {
	idx, err := OpenMemory(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.IndexPage(ctx, "https://a.example/", "/out/a.example/index.md", "# A\n\nshared keyword content"); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexPage(ctx, "https://b.example/", "/out/b.example/index.md", "# B\n\nshared keyword content"); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, "shared keyword", "a.example", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Domain != "a.example" {
		t.Fatalf("expected 1 hit from a.example, got %+v", hits)
	}
}
