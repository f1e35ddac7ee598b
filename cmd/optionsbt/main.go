package main

import (
	"os"

	"optionsbacktester/cmd/optionsbt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
