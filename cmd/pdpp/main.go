package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/pdpp/cmd/pdpp/app"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
