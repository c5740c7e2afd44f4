package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(appEnv{stdout: os.Stdout, stderr: os.Stderr})
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "schemaform: %v\n", err)
		os.Exit(1)
	}
}
