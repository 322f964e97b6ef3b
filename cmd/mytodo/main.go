package main

import (
	"os"

	"github.com/sikong32/mytodo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
