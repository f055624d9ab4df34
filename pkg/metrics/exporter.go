package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
)

// Exporter serves Prometheus-compatible metrics at /metrics. Registry
// state is read live on every scrape; the registered collectors are
// appended after the hand-written families.
type Exporter struct {
	led       ledger.Ledger
	startTime time.Time
}

// NewExporter creates a new Prometheus exporter over the ledger.
func NewExporter(led ledger.Ledger) *Exporter {
	return &Exporter{
		led:       led,
		startTime: time.Now(),
	}
}

// ServeHTTP serves Prometheus-compatible metrics at /metrics
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	guardians, err := e.led.ListGuardians(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Error collecting guardian metrics: %v", err), http.StatusInternalServerError)
		return
	}

	active := 0
	for _, g := range guardians {
		if g.Active {
			active++
		}
	}

	fmt.Fprintf(w, "# HELP sentinel_guardians_total Guardian registry entries by standing\n")
	fmt.Fprintf(w, "# TYPE sentinel_guardians_total gauge\n")
	fmt.Fprintf(w, "sentinel_guardians_total{standing=\"active\"} %d\n", active)
	fmt.Fprintf(w, "sentinel_guardians_total{standing=\"inactive\"} %d\n", len(guardians)-active)

	signer, err := e.led.Signer(r.Context())
	signerSet := 0
	if err == nil && !signer.IsZero() {
		signerSet = 1
	}
	fmt.Fprintf(w, "\n# HELP sentinel_signer_configured Whether a wallet signer is set\n")
	fmt.Fprintf(w, "# TYPE sentinel_signer_configured gauge\n")
	fmt.Fprintf(w, "sentinel_signer_configured %d\n", signerSet)

	fmt.Fprintf(w, "\n# HELP sentinel_uptime_seconds Service uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE sentinel_uptime_seconds gauge\n")
	fmt.Fprintf(w, "sentinel_uptime_seconds %.0f\n", time.Since(e.startTime).Seconds())

	// Host metrics
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		fmt.Fprintf(w, "\n# HELP sentinel_cpu_usage_percent Host CPU usage percentage\n")
		fmt.Fprintf(w, "# TYPE sentinel_cpu_usage_percent gauge\n")
		fmt.Fprintf(w, "sentinel_cpu_usage_percent %.2f\n", cpuPercents[0])
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "\n# HELP sentinel_memory_used_bytes Host memory in use\n")
		fmt.Fprintf(w, "# TYPE sentinel_memory_used_bytes gauge\n")
		fmt.Fprintf(w, "sentinel_memory_used_bytes %d\n", vmStat.Used)

		fmt.Fprintf(w, "\n# HELP sentinel_memory_usage_percent Host memory usage percentage\n")
		fmt.Fprintf(w, "# TYPE sentinel_memory_usage_percent gauge\n")
		fmt.Fprintf(w, "sentinel_memory_usage_percent %.2f\n", vmStat.UsedPercent)
	}

	// Append the collectors registered with the default registry.
	fmt.Fprintf(w, "\n")

	metricFamilies, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering Prometheus metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}

	w.Write(buf.Bytes())
}
