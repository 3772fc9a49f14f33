package main

import (
	"os"

	"github.com/Ljiacheng/aleo-std/cmd/profstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
