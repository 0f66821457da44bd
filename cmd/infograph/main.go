// cmd/infograph/main.go
package main

import (
	"fmt"
	"os"

	"github.com/bethropolis/infograph/internal/config"
	"github.com/bethropolis/infograph/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := newRootCmd(config.LoadConfig)
	err := root.Execute()
	if cerr := logger.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
