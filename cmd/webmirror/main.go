// Command webmirror mirrors a website to a local directory.
package main

import (
	"fmt"
	"os"

	"github.com/tariktz/webmirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
