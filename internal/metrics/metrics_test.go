package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_RecordUpstreamRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamRequest("list_equipment", 200, 50*time.Millisecond)
	c.RecordUpstreamRequest("list_equipment", 200, 30*time.Millisecond)
	c.RecordUpstreamRequest("login", 0, time.Second) // ネットワークエラー

	body := scrape(t, reg)

	if !strings.Contains(body, `equiport_upstream_request_total{operation="list_equipment",status_code="200"} 2`) {
		t.Errorf("list_equipmentのカウンターが想定と異なる:\n%s", body)
	}
	if !strings.Contains(body, `equiport_upstream_request_total{operation="login",status_code="error"} 1`) {
		t.Errorf("ネットワークエラーのカウンターが想定と異なる:\n%s", body)
	}
	if !strings.Contains(body, "equiport_upstream_latency_seconds_count 3") {
		t.Errorf("レイテンシの観測数が想定と異なる:\n%s", body)
	}
}

func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(404)

	body := scrape(t, reg)

	if !strings.Contains(body, `equiport_http_status_total{status_code="404"} 2`) {
		t.Errorf("404のカウンターが想定と異なる:\n%s", body)
	}
}

func TestCollector_RecordSessionsCleaned(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsCleaned(3)
	c.RecordSessionsCleaned(2)

	body := scrape(t, reg)

	if !strings.Contains(body, "equiport_sessions_cleaned_total 5") {
		t.Errorf("クリーンアップのカウンターが想定と異なる:\n%s", body)
	}
}

// scrape は/metricsのレスポンスボディを文字列で返す。
func scrape(t *testing.T, reg prometheus.Gatherer) string {
	t.Helper()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	b, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("レスポンスの読み取りに失敗した: %v", err)
	}
	return string(b)
}
