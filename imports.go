package main

// Importing these packages registers commands, config transformations and
// provisioners as an import side-effect.
import (
	_ "github.com/minci/minci-worker/commands/help"
	_ "github.com/minci/minci-worker/commands/once"
	_ "github.com/minci/minci-worker/commands/schema"
	_ "github.com/minci/minci-worker/commands/version"
	_ "github.com/minci/minci-worker/commands/work"
	_ "github.com/minci/minci-worker/config/env"
	_ "github.com/minci/minci-worker/config/secrets"
	_ "github.com/minci/minci-worker/config/tokenserver"
	_ "github.com/minci/minci-worker/provision/mock"
	_ "github.com/minci/minci-worker/provision/nix"
)
