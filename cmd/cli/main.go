package main

import (
	"os"

	"github.com/adminkit-dev/adminkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
