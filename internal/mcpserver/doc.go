// Package mcpserver exposes the analysis pipelines as MCP tools over stdio.
//
// Each tool is a struct with its dependencies injected via constructor:
// Definition returns the mcp.Tool schema and Handle serves one call. Invalid
// arguments and failed runs come back as tool errors, never as protocol
// errors.
package mcpserver
