package main

import (
	"fmt"
	"os"

	"github.com/dedilute/catalog-backend/tools/admin/cli"
)

func main() {
	root := cli.NewRootCommand(cli.OpenDatabase)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
