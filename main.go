package main

import (
	"os"

	"github.com/goatx/apigen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
