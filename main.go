package main

import (
	"os"

	"github.com/opencubicles/healthkart-dubai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
