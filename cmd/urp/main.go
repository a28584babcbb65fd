package main

import (
	"fmt"
	"os"

	"github.com/sokinpui/urp"
)

func main() {
	if err := urp.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
