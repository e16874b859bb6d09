// SPDX-License-Identifier: EPL-2.0

// Command audpool inspects clips and libraries and plays library requests
// through the speaker.
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

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "audpool:", err)
		stop()
		os.Exit(1)
	}
}
