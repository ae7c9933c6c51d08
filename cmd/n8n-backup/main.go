package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazuruo/n8n-backup/internal/cli"
)

// Version is set at build time using ldflags
var Version = "dev"

// Commit is set at build time using ldflags
var Commit = "unknown"

// Date is set at build time using ldflags
var Date = "unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cli.NewRootCommand(cli.VersionInfo{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
	})

	code := cli.Execute(ctx, rootCmd)
	stop()
	os.Exit(code)
}
