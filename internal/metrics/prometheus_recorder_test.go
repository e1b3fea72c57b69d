package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveCollectDuration(150 * time.Millisecond)
	pr.IncCollectResult(ResultSuccess)
	pr.SetLinkCount(42)
	pr.IncCache("xml", true)
	pr.IncCache("xml", false)
	pr.IncContentEvent("updated")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(mfs))
	}
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveCollectDuration(time.Second)
	pr.IncCollectResult(ResultFailed)
	pr.SetLinkCount(1)
	pr.IncCache("html", false)
	pr.IncContentEvent("deleted")
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetLinkCount(7)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "sitemapd_links 7") {
		t.Errorf("metrics output missing link gauge:\n%s", body)
	}
}
