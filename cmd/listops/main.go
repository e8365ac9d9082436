package main

import (
	"os"

	"github.com/listops/listops/cmd/listops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
