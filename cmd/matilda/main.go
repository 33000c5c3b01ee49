package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matilda-discovery/matilda/internal/cli"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%s (exit code %d)\n", exitErr.Error(), exitErr.Code)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitConfigError)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "matilda",
		Short: "MATILDA discovers approximate tuple-generating dependencies in a relational database",
	}
	root.AddCommand(newRunCmd())
	return root
}
