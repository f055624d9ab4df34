package main

import (
	"os"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/cmd/sentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
