package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/allanpk716/docfill/internal/cmd"
)

func main() {
	root := cmd.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(cmd.AppVersion),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
