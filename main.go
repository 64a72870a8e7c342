package main

import (
	"os"

	"github.com/kagawa-dx/bosaictl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
