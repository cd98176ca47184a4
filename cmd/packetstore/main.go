package main

import (
	"os"

	"github.com/0xRadioAc7iv/go-packetstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
