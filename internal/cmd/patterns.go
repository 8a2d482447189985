package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/tactile/pkg/gesture"
	"github.com/offlinefirst/tactile/pkg/haptic"
)

func newPatternsCommand() command {
	return command{
		name:        "patterns",
		description: "List the pulse pattern played for each trigger",
		run: func(_ *flag.FlagSet, _ []string, _ *AppContext, stdout io.Writer, _ io.Writer) error {
			for _, trig := range gesture.All {
				pattern := haptic.PatternFor(trig)
				fmt.Fprintf(stdout, "%-18s %d pulses over %s\n", trig, len(pattern), pattern.Duration())
				for _, p := range pattern {
					fmt.Fprintf(stdout, "  +%-8s %s\n", p.Delay, p.Kind)
				}
			}
			return nil
		},
		skipInit: true,
	}
}
