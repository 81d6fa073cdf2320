// Package metrics exports the gateway's Prometheus collectors.
//
// All collectors live on a private registry so tests can assemble
// gateways side by side without duplicate-registration panics. The
// orchestrator increments the task lifecycle counters at each state
// transition and the agent gauge on register and status change; the
// gateway mounts Handler on the configured scrape path.
//
// Metric names are stable and carry the swarm_ prefix, for example
// swarm_task_created_total and swarm_active_agents.
package metrics
