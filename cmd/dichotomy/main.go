// Package main provides the entry point for the dichotomy CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/dichotomy/cmd/dichotomy/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
