package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestObserveToolExecutionExposesCounterAndHistogram(t *testing.T) {
	c := New()
	c.ObserveToolExecution("read_file", true, 0.02)
	c.ObserveToolExecution("read_file", false, 1.5)

	body := scrape(t, c)
	for _, want := range []string{
		`agentcore_tools_executions_total{outcome="ok",tool="read_file"} 1`,
		`agentcore_tools_executions_total{outcome="error",tool="read_file"} 1`,
		"agentcore_tools_execution_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}

func TestObserveCompletionExposesTierAndFinishReason(t *testing.T) {
	c := New()
	c.ObserveCompletion("cloud-primary", "stop")

	body := scrape(t, c)
	if !strings.Contains(body, `agentcore_router_completions_total{finish_reason="stop"} 1`) {
		t.Errorf("missing completions_total series:\n%s", body)
	}
	if !strings.Contains(body, `agentcore_router_completions_by_tier_total{tier="cloud-primary"} 1`) {
		t.Errorf("missing completions_by_tier_total series:\n%s", body)
	}
}

func TestObserveBudgetDowngradeIncrementsCounter(t *testing.T) {
	c := New()
	c.ObserveBudgetDowngrade()
	c.ObserveBudgetDowngrade()

	body := scrape(t, c)
	if !strings.Contains(body, "agentcore_router_budget_downgrades_total 2") {
		t.Errorf("expected budget downgrade counter at 2, got:\n%s", body)
	}
}

func TestObserveJobFiredExposesOutcomeAndDuration(t *testing.T) {
	c := New()
	c.ObserveJobFired(true, 0.5)
	c.ObserveJobFired(false, 2.0)

	body := scrape(t, c)
	if !strings.Contains(body, `agentcore_scheduler_jobs_fired_total{outcome="ok"} 1`) {
		t.Errorf("missing ok job outcome series:\n%s", body)
	}
	if !strings.Contains(body, `agentcore_scheduler_jobs_fired_total{outcome="error"} 1`) {
		t.Errorf("missing error job outcome series:\n%s", body)
	}
	if !strings.Contains(body, "agentcore_scheduler_job_duration_seconds_bucket") {
		t.Errorf("missing job duration histogram:\n%s", body)
	}
}

func TestNilCollectorObserveMethodsAreSafeNoOps(t *testing.T) {
	var c *Collector

	c.ObserveToolExecution("anything", true, 1.0)
	c.ObserveCompletion("local", "stop")
	c.ObserveBudgetDowngrade()
	c.ObserveJobFired(true, 1.0)

	if h := c.Handler(); h == nil {
		t.Fatal("expected a non-nil handler even for a nil collector")
	}
}

func TestNilCollectorHandlerReturns404(t *testing.T) {
	var c *Collector

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from a nil collector's handler, got %d", rec.Code)
	}
}

func TestTwoCollectorsDoNotCollideOnRegistration(t *testing.T) {
	c1 := New()
	c2 := New()

	c1.ObserveBudgetDowngrade()
	c2.ObserveBudgetDowngrade()
	c2.ObserveBudgetDowngrade()

	body1 := scrape(t, c1)
	body2 := scrape(t, c2)

	if !strings.Contains(body1, "agentcore_router_budget_downgrades_total 1") {
		t.Errorf("expected c1 counter at 1, got:\n%s", body1)
	}
	if !strings.Contains(body2, "agentcore_router_budget_downgrades_total 2") {
		t.Errorf("expected c2 counter at 2, got:\n%s", body2)
	}
}
