// Package gateway assembles and runs the swarm-gateway server.
//
// # Responsibilities
//
// The Gateway type wires the configured store backend into the
// orchestration core, registers the tool set with the MCP transport, and
// serves everything over a single HTTP listener:
//
//   - /mcp           MCP Streamable HTTP endpoint for agent clients
//   - /health        liveness probe
//   - /health/ready  readiness probe (store reachability)
//   - /metrics       Prometheus metrics (when enabled)
//
// Run blocks until the context is canceled, then shuts the HTTP server,
// timeout monitor, and store down in order with a bounded grace period.
package gateway
