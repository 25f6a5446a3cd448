// Command dealerforge runs the multi-tenant dealership API.
//
//	dealerforge [serve]        start the HTTP server (default)
//	dealerforge admin <cmd>    operator commands against the configured store
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "admin":
		err = runAdmin(args)
	case "help", "-h", "--help":
		fmt.Fprintln(os.Stderr, "Usage: dealerforge [serve | admin <command>]")
		return
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
