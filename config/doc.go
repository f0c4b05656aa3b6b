// Package config provides configuration loading logic. A configuration file
// is YAML with two top-level properties: 'config', the initial configuration
// object, and 'transforms', an ordered list of transformations to run on it.
//
// Each sub-package of this package implements a TransformationProvider and
// registers it by name as an import side-effect. Transformations typically
// replace objects matching a specific pattern, such as {$env: "VAR"}, with a
// value resolved at load time. This is how secrets stay out of configuration
// files: the file references a secret store, and the value is injected just
// before the worker starts.
//
// After all transformations have run the configuration object is validated
// against the schema required by the 'worker' package.
package config
