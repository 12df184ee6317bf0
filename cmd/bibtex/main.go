package main

import (
	"os"

	"github.com/drgo/bibtex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
