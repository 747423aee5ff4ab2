// Command ibpcheck looks up inmates and checks book shipments before they go out.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ibpcheck:", err)
		os.Exit(1)
	}
}
