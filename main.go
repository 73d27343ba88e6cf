// The main package for the link-archiver executable.
package main

import (
	"github.com/m-a-p/link-archiver/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
