package main

import (
	"fmt"
	"os"

	"github.com/Domenick1991/busbooking/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "busctl:", err)
		os.Exit(1)
	}
}
