// imgshelf - command-line client for an image library
package main

import (
	"os"

	"github.com/imgshelf/imgshelf/internal/cli"
	"github.com/imgshelf/imgshelf/internal/version"
)

// Version information, set with -ldflags at release time.
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	// cobra has already printed the error.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
