// Package queue routes pending task ids through per-agent-type queues and
// the dead-letter queue. It only ever holds ids — task records live with
// the task manager, and a queue entry whose record has vanished is treated
// as a gap to skip, not an error.
package queue
