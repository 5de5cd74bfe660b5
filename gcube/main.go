// gcube assembles single-date satellite rasters into multi-band cubes and
// runs the cube utilities from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd, ctx := newRootCommand()
	err := rootCmd.Execute()
	ctx.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gcube:", err)
		os.Exit(1)
	}
}
