package main

import (
	"fmt"
	"os"

	"github.com/Cocadite/api-pe-na-porta/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
