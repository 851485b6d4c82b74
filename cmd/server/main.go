// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/awingconnect/license-server/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
