package main

import (
	"fmt"
	"os"

	"chatlog/internal/cli"
)

// set build metadata
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(cli.Execute(fmt.Sprintf("%s (commit: %s)", version, commit), os.Args[1:], os.Stdout, os.Stderr))
}
