// Ccrun incrementally builds and runs C/C++ projects.
package main

import (
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/cli"
)

func main() {
	cli.Execute()
}
