package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/offlinefirst/tactile/pkg/permissions"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Report permissions and backend availability",
		run:         runDoctor,
	}
}

func runDoctor(_ *flag.FlagSet, _ []string, ctx *AppContext, stdout io.Writer, _ io.Writer) error {
	fmt.Fprintln(stdout, "Permissions:")
	for _, probe := range permissions.ProbeAll(nil) {
		fmt.Fprintf(stdout, "  %-18s %s\n", probe.Name, probe.StatusString())
		if probe.Message != "" {
			fmt.Fprintf(stdout, "    %s\n", probe.Message)
		}
		if probe.Guidance != "" {
			fmt.Fprintf(stdout, "    %s\n", probe.Guidance)
		}
	}

	src := events.DetectEnvironment(nil)
	fmt.Fprintln(stdout, "Event tap:")
	fmt.Fprintf(stdout, "  provider: %s\n  available: %t\n", src.Provider, src.Available)
	if src.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", src.Message)
	}

	act := actuator.DetectEnvironment()
	fmt.Fprintln(stdout, "Actuator:")
	fmt.Fprintf(stdout, "  provider: %s\n  available: %t\n", act.Provider, act.Available)
	if act.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", act.Message)
	}

	if ctx != nil {
		fmt.Fprintf(stdout, "Configured: source=%s actuator=%s (origin: %s)\n",
			ctx.Config.Source.Kind, ctx.Config.Actuator.Kind, ctx.Config.Origin)
	}
	return nil
}
