// Package metric provides Prometheus metrics for authsession.
//
//   - prometheus.go: registry, counters and histograms, textfile export
//   - collector.go: session phase collector read at scrape time
//
// A CLI process is short-lived, so metrics are not served over HTTP; they
// are written in the node_exporter textfile format when a path is configured.
package metric
