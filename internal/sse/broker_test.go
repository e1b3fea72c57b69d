package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeContentChanged, Data: ContentChange{Kind: "created", Path: "pages/a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: content.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"pages/a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishContentChange_SitemapThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// first change triggers sitemap.updated
	b.PublishContentChange("created", "pages/a.md")
	// an immediate second change does not
	b.PublishContentChange("updated", "pages/b.md")

	time.Sleep(50 * time.Millisecond)
	sitemapCount := 0
	changeCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: sitemap.updated") {
				sitemapCount++
			} else {
				changeCount++
			}
		default:
			break loop
		}
	}

	if changeCount != 2 {
		t.Errorf("content events = %d, want 2", changeCount)
	}
	if sitemapCount != 1 {
		t.Errorf("sitemap events = %d, want 1 (throttled)", sitemapCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeSitemapUpdated, Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: sitemap.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 70 {
		b.Publish(Event{Type: TypeSitemapUpdated, Data: map[string]string{}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// no-ops after close
	b.Publish(Event{Type: TypeSitemapUpdated, Data: map[string]string{}})
	b.PublishContentChange("updated", "pages/x.md")
}

func TestContentChangePayload(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishContentChange("deleted", "news/old.md")

	select {
	case msg := <-ch:
		lines := strings.Split(string(msg), "\n")
		if len(lines) != 5 || !strings.HasPrefix(lines[0], "id: ") || len(lines[0]) != len("id: ")+36 {
			t.Fatalf("unexpected frame %q", msg)
		}
		if lines[1] != "event: content.changed" {
			t.Errorf("event line = %q", lines[1])
		}
		if want := `data: {"kind":"deleted","path":"news/old.md"}`; lines[2] != want {
			t.Errorf("data line = %q, want %q", lines[2], want)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}
