package main

import (
	"os"

	"github.com/helixlabs/codeprism/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
