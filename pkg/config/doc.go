// Package config parses and validates nxld engine configuration files and loads
// the runtime settings of the nxld command.
//
// # Overview
//
// Two layers of configuration live here:
//
//   - the engine document (.nxld) that names the plugin modules to enable
//   - runtime settings read from NXLD_* environment variables
//
// # Document Format
//
// The engine document is line oriented:
//
//	# comments start with '#'
//	[EngineCore]
//	LockMode=1
//	MaxRootPlugins=2
//	EnabledRootPlugins=pluginA.so, pluginB.so
//
//	[RootPluginVirtualParent]
//	pluginB.so=pluginA.so
//
// Only EngineCore and RootPluginVirtualParent are recognised. Lines under any
// other section are dropped. A document without an EngineCore section is
// rejected with MissingSection.
//
// # Validation
//
// ParseFile checks the leading bytes for a UTF-8 compatible encoding, parses
// the document, then validates it. The first violated rule is returned as a
// *ParseError whose kind can be matched with errors.Is:
//
//	doc, err := config.ParseFile("NexusEngine.nxld", config.WithLogger(log))
//	if errors.Is(err, config.PluginNotFound) {
//		// ...
//	}
//
// Plugin paths are resolved against the directory of the configuration file,
// see ResolvePath.
//
// # Runtime Settings
//
//	NXLD_CONFIG="NexusEngine.nxld"
//	NXLD_LOG_FILE="nxld_parser.log"
//	NXLD_LOG_LEVEL="info"      # debug, info, warn, error
//	NXLD_METRICS_FILE=""       # Prometheus textfile output
//	NXLD_CATALOG=""            # SQLite load history
//	NXLD_OUTPUT="text"         # text, yaml, json
//	NXLD_VERBOSE="false"
package config
