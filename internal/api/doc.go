// Package api hosts the optional HTTP listener that runs alongside an export:
//   - GET /healthz reports liveness.
//   - GET /readyz reports 200 once the table source is open and probes are running.
//   - GET /metrics serves the Prometheus registry.
package api
