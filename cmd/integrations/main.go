// Command integrations manages calendar, video and webhook integrations
// from the terminal.
package main

import (
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	root, s := newRootCmd()
	defer s.close()

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
