// Package cli provides the nxld command-line interface.
//
// # Overview
//
// The nxld command parses an engine configuration document, loads every
// enabled root plugin through the native dynamic loader, writes a manifest next
// to each loaded module and prints a summary of what was discovered.
//
// # Commands
//
// Load the plugins of a configuration (NexusEngine.nxld by default):
//
//	nxld [config] \
//		--log-file nxld_parser.log \
//		--metrics-file nxld.prom \
//		--catalog nxld.db \
//		--output yaml
//
// validate: Parse and validate a configuration without loading anything
//
//	nxld validate NexusEngine.nxld
//
// manifest: Print and check a manifest written by a previous load
//
//	nxld manifest plugins/echo.nxp --output json
//
// history: List loads recorded in a catalog
//
//	nxld history --catalog nxld.db --limit 20
//	nxld history --catalog nxld.db --uid <uid>
//
// # Settings
//
// Every persistent flag has an environment variable counterpart (NXLD_CONFIG,
// NXLD_LOG_FILE, NXLD_LOG_LEVEL, NXLD_VERBOSE, NXLD_METRICS_FILE, NXLD_CATALOG,
// NXLD_OUTPUT). Flags win over the environment.
//
// # Exit codes
//
// nxld exits 1 when the configuration cannot be parsed or validated, or when the
// batch cannot start. A plugin that fails to load is reported and skipped
// without changing the exit code.
package cli
