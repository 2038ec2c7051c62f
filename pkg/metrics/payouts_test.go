package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPayoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPayoutMetrics(reg)

	metrics.ObserveRunDuration("worker", 125*time.Millisecond)
	metrics.IncProcessed("completed")
	metrics.IncProcessed("failed")
	metrics.AddAmount("completed", 150000)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payouts_processed_total", "status", "completed"); err != nil {
		t.Fatalf("fetch processed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected processed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payouts_processed_total", "status", "failed"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payout_amount_minor_total", "status", "completed"); err != nil {
		t.Fatalf("fetch amount: %v", err)
	} else if got != 150000 {
		t.Fatalf("expected amount=150000, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "payout_run_duration_seconds", "trigger", "worker"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPayoutMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPayoutMetrics(nil)
	metrics.ObserveRunDuration("worker", time.Second)
	metrics.IncProcessed("completed")
	metrics.AddAmount("completed", 100)
}

func TestPayoutMetricsIgnoresNegativeAmounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPayoutMetrics(reg)
	metrics.AddAmount("failed", -500)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if _, err := fetchCounterValue(mfs, "payout_amount_minor_total", "status", "failed"); err == nil {
		t.Fatal("expected no sample for negative amount")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
