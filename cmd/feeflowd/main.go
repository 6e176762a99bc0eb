package main

import (
	"os"

	"github.com/feeflow-network/feeflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
