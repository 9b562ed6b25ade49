package resolve

// nodeBuiltinModules lists Node.js core modules, so a bare specifier that
// names one is never treated as an unresolved local import or a missing
// dependency. Mirrors module.builtinModules filtered to top-level names.
var nodeBuiltinModules = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"sys": true, "timers": true, "tls": true, "trace_events": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}

// IsNodeBuiltin reports whether specifier names a Node.js core module,
// accepting both bare ("fs") and "node:"-prefixed ("node:fs") forms, and
// subpaths of either ("fs/promises", "node:fs/promises").
func IsNodeBuiltin(specifier string) bool {
	if len(specifier) > 5 && specifier[:5] == "node:" {
		specifier = specifier[5:]
	}
	for i := 0; i < len(specifier); i++ {
		if specifier[i] == '/' {
			return nodeBuiltinModules[specifier[:i]]
		}
	}
	return nodeBuiltinModules[specifier]
}
