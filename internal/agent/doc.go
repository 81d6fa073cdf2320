// Package agent manages the registry of worker agents.
//
// Agents self-register with an id, a type, and capability tags, then poll
// the queue for their type. The registry tracks idle/busy/offline status
// and the task an agent currently holds. Staleness detection is out of
// scope: an agent that stops heartbeating is simply left behind with an
// old last_heartbeat until it re-registers.
package agent
