// Package nixprovisioner implements a provisioner on top of the nix package
// manager.
//
// The environment descriptor names an installable (typically a flake
// reference) declaring the project's toolchain. Provisioning realizes the
// installable with `nix build`, command execution happens inside
// `nix develop`, so the declared toolchain is on PATH.
//
// Trust settings and the access token are written to a per-job settings
// file referenced through NIX_USER_CONF_FILES; the file is created with mode
// 0600 and removed when the job's environment is disposed. Impure evaluation
// can be requested through the descriptor, which is required when the
// environment reads host-level settings such as the injected token.
package nixprovisioner

import "github.com/minci/minci-worker/runtime"

var debug = runtime.Debug("nixprovisioner")
