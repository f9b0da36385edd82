package main

import (
	"context"
	"os"

	"pdf-inplace-translator/internal/cli"
	"pdf-inplace-translator/internal/logger"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", err)
		rootCmd.PrintErrln("Error:", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}
