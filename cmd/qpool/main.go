// Package main provides the qpool CLI for planning and running quantized
// max-pooling layers.
package main

import (
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if err := NewCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
