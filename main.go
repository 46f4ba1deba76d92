package main

import (
	"github.com/nconklindev/xlcut/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Main(cli.BuildInfo{Version: version, Commit: commit, Date: date})
}
