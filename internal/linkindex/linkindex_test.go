package linkindex

import (
	"context"
	"testing"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestRegisterPageBasicOperations(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/example.com/a/index.md", []string{
		"https://example.com/b",
		"https://example.com/c",
	}); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}

	path, ok, err := idx.GetLocalPath(ctx, "https://example.com/a")
	if err != nil || !ok {
		t.Fatalf("GetLocalPath: ok=%v err=%v", ok, err)
	}
	if path != "/out/example.com/a/index.md" {
		t.Errorf("path = %q", path)
	}

	outs, err := idx.GetOutboundLinks(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("GetOutboundLinks: %v", err)
	}
	if len(outs) != 2 {
		t.Errorf("len(outs) = %d, want 2", len(outs))
	}
}

func TestInboundLinks(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/a/index.md", []string{"https://example.com/b"}); err != nil {
		t.Fatalf("RegisterPage a: %v", err)
	}
	if err := idx.RegisterPage(ctx, "https://example.com/b", "/out/b/index.md", []string{"https://example.com/a"}); err != nil {
		t.Fatalf("RegisterPage b: %v", err)
	}

	inbound, err := idx.GetInboundLinks(ctx, "https://example.com/b")
	if err != nil {
		t.Fatalf("GetInboundLinks: %v", err)
	}
	if len(inbound) != 1 || inbound[0].SourcePath != "/out/a/index.md" {
		t.Fatalf("inbound = %+v", inbound)
	}
}

func TestRegisterPageReplacesEdges(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/a.md", []string{"https://example.com/b", "https://example.com/c"}); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}
	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/a.md", []string{"https://example.com/d"}); err != nil {
		t.Fatalf("RegisterPage update: %v", err)
	}

	outs, err := idx.GetOutboundLinks(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("GetOutboundLinks: %v", err)
	}
	if len(outs) != 1 || outs[0] != "https://example.com/d" {
		t.Fatalf("outs = %v", outs)
	}
}

func TestFilterExisting(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/a.md", nil); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}

	existing, err := idx.FilterExisting(ctx, []string{"https://example.com/a", "https://example.com/missing"})
	if err != nil {
		t.Fatalf("FilterExisting: %v", err)
	}
	if _, ok := existing["https://example.com/a"]; !ok {
		t.Errorf("expected a to exist")
	}
	if _, ok := existing["https://example.com/missing"]; ok {
		t.Errorf("missing should not exist")
	}
}

func TestDomainQueries(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.RegisterPage(ctx, "https://example.com/a", "/out/a.md", nil); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}
	if err := idx.RegisterPage(ctx, "https://example.com/b", "/out/b.md", nil); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}
	if err := idx.RegisterPage(ctx, "https://other.com/c", "/out/c.md", nil); err != nil {
		t.Fatalf("RegisterPage: %v", err)
	}

	pages, err := idx.GetPagesByDomain(ctx, "example.com")
	if err != nil {
		t.Fatalf("GetPagesByDomain: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2", len(pages))
	}

	n, err := idx.PageCount(ctx)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 3 {
		t.Errorf("PageCount = %d, want 3", n)
	}
}
