package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()

	m.CommandExecutions.WithLabelValues("auth login", "true").Inc()

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "gemora_command_executions_total" {
			found = true
			break
		}
	}
	if !found {
		t.Error("metrics not registered with custom registry")
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.GatewayRequests.WithLabelValues("POST", "2xx").Inc()

	handler := HandlerFor(reg, promhttp.HandlerOpts{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "gemora_gateway_requests_total") {
		t.Error("metrics output does not contain gateway_requests_total")
	}
}

func TestWriteText(t *testing.T) {
	reg, m := NewRegistry()
	m.SessionInvalidations.WithLabelValues("applied").Inc()

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# TYPE gemora_session_invalidations_total counter",
		`gemora_session_invalidations_total{outcome="applied"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestMultipleRegistries(t *testing.T) {
	_, m1 := NewRegistry()
	_, m2 := NewRegistry()

	m1.Logins.WithLabelValues("login", "true").Inc()
	m2.Logins.WithLabelValues("register", "true").Inc()
}

func TestRelay(t *testing.T) {
	reg, m := NewRegistry()
	m.Logins.WithLabelValues("login", "false").Inc()
	m.GatewayRequests.WithLabelValues("GET", "4xx").Add(2)

	var exposed bytes.Buffer
	if err := WriteText(&exposed, reg); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	var out bytes.Buffer
	n, err := Relay(&out, &exposed)
	if err != nil {
		t.Fatalf("Relay failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Relay() families = %d, want 2", n)
	}
	if !strings.Contains(out.String(), `gemora_gateway_requests_total{method="GET",status="4xx"} 2`) {
		t.Errorf("relayed output missing gateway requests:\n%s", out.String())
	}
}

func TestRelay_Garbage(t *testing.T) {
	var out bytes.Buffer
	if _, err := Relay(&out, strings.NewReader("this is { not metrics")); err == nil {
		t.Error("expected parse error")
	}
}
