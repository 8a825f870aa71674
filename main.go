package main

import (
	"os"

	"github.com/vedanthangal/sanctuary/cmd"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
)

// Stamped at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildDate=$(date -u +%Y-%m-%d)"
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	build := &buildinfo.Context{Version: version, BuildDate: buildDate}
	if err := cmd.RootCommand(build).Execute(); err != nil {
		os.Exit(1)
	}
}
