package main

import (
	"os"

	"github.com/danpasecinic/taskaction/internal/cli"
	"github.com/danpasecinic/taskaction/internal/logger"
)

func main() {
	defer logger.Sync()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
