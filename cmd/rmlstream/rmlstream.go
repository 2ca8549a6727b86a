// Command rmlstream streams RDF quads from CSV sources against an RML
// mapping document.
package main

import (
	"os"

	"github.com/rmlstream/rmlstream/cmd/rmlstream/command"
)

func main() {
	if err := command.NewCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
