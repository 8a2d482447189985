// Command tactile turns trackpad gestures into haptic feedback.
package main

import (
	"os"

	"github.com/offlinefirst/tactile/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
