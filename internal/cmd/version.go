package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/tactile/internal/buildinfo"
)

func newVersionCommand() command {
	return command{
		name:        "version",
		description: "Print version and build details",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("short", false, "Print only the version number")
		},
		skipInit: true,
		run: func(fs *flag.FlagSet, _ []string, _ *AppContext, stdout io.Writer, _ io.Writer) error {
			if boolFlag(fs, "short") {
				_, err := fmt.Fprintln(stdout, buildinfo.Version())
				return err
			}
			_, err := fmt.Fprintf(stdout, "tactile %s\n", versionString())
			return err
		},
	}
}
