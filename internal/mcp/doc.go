// Package mcp implements the gateway's MCP Streamable HTTP transport.
//
// # Transport
//
// A single /mcp endpoint accepts JSON-RPC 2.0 messages over HTTP POST,
// per the Streamable HTTP transport spec (2025-11-25). Three methods are
// served: initialize, tools/list, and tools/call. Server-initiated SSE
// streams are not supported, so GET returns 405.
//
// # Sessions
//
// initialize mints a session and returns its id in the Mcp-Session-Id
// response header. Every later request must echo that header; DELETE with
// the header tears the session down. Sessions live in memory only, so a
// gateway restart invalidates them and clients re-initialize.
//
// # Error surface
//
// Transport-level problems (bad JSON, unknown method, unknown tool) are
// JSON-RPC errors. Tool-level problems, including argument validation and
// domain errors like an unknown task id, come back as a tools/call result
// with isError set, which is what MCP clients expect to show the model.
package mcp
