// Command muckd is the Fuzzball MUCK server binary.
package main

import (
	"os"

	"github.com/fuzzball-muck/muckd/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
