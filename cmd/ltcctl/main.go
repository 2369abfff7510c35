package main

import (
	"os"

	"github.com/tinarmengineering/ltc/cmd/ltcctl/cmd"
	"github.com/tinarmengineering/ltc/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
