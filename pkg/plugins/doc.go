// Package plugins loads nxld plugin modules and describes them.
//
// # Overview
//
// A plugin is a native dynamic module exporting a small C introspection
// protocol. The Loader opens the module through pkg/platform, resolves the
// protocol's entry points once, and builds a Descriptor holding the plugin's
// identity and declared interfaces. Each successful load is given a random
// 64-character UID and a .nxp manifest is written next to the module.
//
// # Introspection Protocol
//
// Mandatory symbols:
//
//	int nxld_plugin_get_name(char* name, size_t size);
//	int nxld_plugin_get_version(char* version, size_t size);
//	int nxld_plugin_get_interface_count(size_t* count);
//	int nxld_plugin_get_interface_info(size_t index,
//	        char* name, size_t name_size,
//	        char* description, size_t desc_size,
//	        char* version, size_t version_size);
//
// Optional symbols, used only when both are exported:
//
//	int nxld_plugin_get_interface_param_count(size_t index,
//	        nxld_param_count_type_t* kind, int* min, int* max);
//	int nxld_plugin_get_interface_param_info(size_t index, int param,
//	        char* name, size_t name_size,
//	        nxld_param_type_t* type,
//	        char* type_name, size_t type_name_size);
//
// Every function returns 0 on success. Without the optional pair every
// interface has UnknownArity and no parameters. Otherwise the first Min
// parameters of a fixed or variable interface are enumerated; a parameter
// that cannot be described is recorded as ParamUnknown with a warning.
//
// # Loading
//
//	loader := plugins.NewLoader(platform.Native(), log)
//	d, err := loader.Load("/opt/nxld/pluginA.so")
//	if err != nil {
//		var le *plugins.LoadError
//		if errors.As(err, &le) && le.Kind == plugins.SymbolError {
//			fmt.Println("missing:", le.Missing)
//		}
//		return err
//	}
//	defer d.Close()
//
// # Batches
//
// Batch.LoadAll drives every enabled entry of a config.Document through the
// loader in declared order. Failing entries are logged and skipped; the
// result keeps the successes in order and records the failures.
//
//	result, err := plugins.NewBatch(loader, log).LoadAll(ctx, doc, doc.Path)
//	if err != nil {
//		return err
//	}
//	defer result.Close()
//
// # Manifests
//
// WriteManifest and ReadManifest convert between Manifest values and the
// line-oriented NXP v1.0 text format:
//
//	[Plugin]
//	Name=echo
//	Version=1.0.0
//	UID=...
//	Path=/opt/nxld/echo.so
//
//	[Interfaces]
//	Count=1
//
//	[Interface_0]
//	Name=Echo
//	...
package plugins
