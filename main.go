package main

import (
	"fmt"
	"os"

	"github.com/AnyUserName/tgimg-decode/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tgimg-decode: %v\n", err)
		os.Exit(1)
	}
}
