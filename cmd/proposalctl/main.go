package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gaborage/go-proposals/internal/commands"
)

var version = "dev" // Will be set during build

func main() {
	err := commands.NewRootCommand(version).ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(commands.ExitCode(err))
}
