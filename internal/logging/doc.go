// Package logging configures log/slog for the catalog binaries.
//
// Logs go to stderr by default. When a log file is configured, or --debug
// is set, records are also written to a size-rotated file under
// ~/.catalog/logs/. The MCP command logs to the file only, since stdout
// carries the protocol stream.
package logging
