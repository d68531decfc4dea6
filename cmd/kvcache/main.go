// kvcache is a small command-line client for the kvcache adapter.
package main

import (
	"fmt"
	"os"

	"github.com/unkn0wn-root/kvcache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kvcache:", err)
		os.Exit(1)
	}
}
