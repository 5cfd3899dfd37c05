package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/garagon/tatu/cmd/tatu/commands"
)

func main() {
	err := commands.Execute()
	switch {
	case err == nil:
	case errors.Is(err, commands.ErrThresholdExceeded):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "tatu: %v\n", err)
		os.Exit(2)
	}
}
