// The main package for the blocklistd executable.
package main

import (
	"github.com/ssnlabs/blocklistd/cmd"
)

func main() {
	cmd.Execute()
}
