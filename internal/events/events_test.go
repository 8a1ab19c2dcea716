package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := New(Config{Capacity: 10, EnableMetrics: true})
	_, err := bus.Publish(NewCrawlStarted("https://example.com", "/output", 2))
	if err != ErrNoSubscribers {
		t.Fatalf("expected ErrNoSubscribers, got %v", err)
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(Config{Capacity: 10, EnableMetrics: true})
	recv := bus.Subscribe()
	defer recv.Close()

	count, err := bus.Publish(NewCrawlStarted("https://example.com", "/output", 2))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	event, err := recv.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if event.Kind != KindCrawlStarted || event.CrawlStarted.URL != "https://example.com" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	bus := New(Config{Capacity: 10, EnableMetrics: true})
	r1 := bus.Subscribe()
	r2 := bus.Subscribe()
	defer r1.Close()
	defer r2.Close()

	count, err := bus.Publish(NewCacheHit("https://example.com/a"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	ctx := context.Background()
	for _, r := range []*Receiver{r1, r2} {
		e, err := r.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if e.Kind != KindCacheHit {
			t.Fatalf("unexpected kind %v", e.Kind)
		}
	}
}

func TestEventOrderingPageCrawledBeforeLinkRewrite(t *testing.T) {
	bus := New(Config{Capacity: 100, EnableMetrics: true})
	recv := bus.Subscribe()
	defer recv.Close()

	url := "https://example.com/a"
	if _, err := bus.Publish(NewPageCrawled(url, "/out/a.md", 0, PageCrawlMetadata{})); err != nil {
		t.Fatalf("publish page crawled: %v", err)
	}
	if _, err := bus.Publish(NewLinkRewriteCompleted(url, 1, 1)); err != nil {
		t.Fatalf("publish link rewrite: %v", err)
	}

	ctx := context.Background()
	first, err := recv.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	second, err := recv.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}

	if first.Kind != KindPageCrawled {
		t.Fatalf("first event kind = %v, want PageCrawled", first.Kind)
	}
	if second.Kind != KindLinkRewriteCompleted {
		t.Fatalf("second event kind = %v, want LinkRewriteCompleted", second.Kind)
	}
}

func TestErrorModeChannelFull(t *testing.T) {
	bus := New(Config{Capacity: 2, BackpressureMode: Error, EnableMetrics: true})
	recv := bus.Subscribe()
	defer recv.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := bus.PublishWithBackpressure(ctx, NewCacheHit("u")); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	_, err := bus.PublishWithBackpressure(ctx, NewCacheHit("u"))
	if err != ErrChannelFull {
		t.Fatalf("expected ErrChannelFull, got %v", err)
	}
}

func TestBlockModeNoDropsUnderContention(t *testing.T) {
	bus := New(Config{Capacity: 10, BackpressureMode: Block, EnableMetrics: true})
	recv := bus.Subscribe()
	defer recv.Close()

	const publishers = 20
	const perPublisher = 5
	const total = publishers * perPublisher

	received := make(chan struct{}, total)
	done := make(chan struct{})
	go func() {
		ctx := context.Background()
		for i := 0; i < total; i++ {
			if _, err := recv.Recv(ctx); err != nil {
				t.Errorf("Recv: %v", err)
				return
			}
			received <- struct{}{}
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			for j := 0; j < perPublisher; j++ {
				if _, err := bus.PublishWithBackpressure(ctx, NewCacheHit("u")); err != nil {
					t.Errorf("publish: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all events")
	}

	if len(received) != total {
		t.Fatalf("received %d events, want %d", len(received), total)
	}
	if snap := bus.Snapshot(); snap.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", snap.Dropped)
	}
}

func TestFilteredReceiverDrainsNonMatching(t *testing.T) {
	bus := New(Config{Capacity: 10, EnableMetrics: true})
	raw := bus.Subscribe()
	defer raw.Close()

	filtered := NewFilteredReceiver(raw, func(e CrawlEvent) bool { return e.Kind == KindPageCrawled })

	if _, err := bus.Publish(NewCacheHit("u1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := bus.Publish(NewPageCrawled("u2", "/p", 0, PageCrawlMetadata{})); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	event, err := filtered.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if event.Kind != KindPageCrawled {
		t.Fatalf("kind = %v, want PageCrawled", event.Kind)
	}
}

func TestShutdownGracefullyPublishesShutdownEvent(t *testing.T) {
	bus := New(Config{Capacity: 10, EnableMetrics: true})
	recv := bus.Subscribe()
	defer recv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- bus.ShutdownGracefully(ctx, ShutdownCrawlCompleted, "") }()

	recvCtx, recvCancel := context.WithTimeout(context.Background(), time.Second)
	defer recvCancel()
	event, err := recv.Recv(recvCtx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if event.Kind != KindShutdown {
		t.Fatalf("kind = %v, want Shutdown", event.Kind)
	}

	if err := <-done; err != nil {
		t.Fatalf("ShutdownGracefully: %v", err)
	}
	if !bus.IsShutdown() {
		t.Fatal("expected bus to be shut down")
	}
}
