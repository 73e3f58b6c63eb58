// visibility runs brand-visibility analyses from the command line.
package main

import (
	"os"

	"github.com/AI-Template-SDK/senso-visibility/cmd/visibility/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
