// Command qaforum is a terminal client for the forum. It drives the same
// stores a graphical frontend would, through internal/app.
//
//	qaforum login john@example.com --password password123
//	qaforum questions
//	qaforum show 1
//	qaforum vote question 1 up
//	qaforum accept 2 --question 1
//	qaforum notifications --read-all
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
