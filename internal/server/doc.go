// Package server implements the MCP (Model Context Protocol) server exposing
// the graphene analyses as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - graphene_image_info: Dimensions, format and depth of a micrograph
//   - graphene_scale: Micrometers per pixel read from the footer scale bar
//   - graphene_exclusion: Bacteria exclusion ratio, optional radial profile
//   - graphene_flakes: Flake orientations and lengths with histograms
//   - graphene_contrast: Edge detector output for threshold tuning
//   - graphene_crop: Zoom into a region
//   - graphene_measure: Distance between two points in micrometers
//   - graphene_default_config: Default configuration as YAML
//
// Analysis tools start from the configuration the server was created with.
// Their arguments override it for the one call, and a scale given as
// scale_micrometers over scale_pixels replaces OCR of the footer.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
