package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags. Fields the build leaves empty fall
// back to the metadata the Go toolchain stamps into the binary.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildDetails is the resolved version metadata shown to the user.
type buildDetails struct {
	version string
	commit  string
	date    string
}

// resolveBuildDetails starts from the ldflags values and consults
// debug.ReadBuildInfo once for whatever is still blank.
func resolveBuildDetails() buildDetails {
	d := buildDetails{version: version, commit: commit, date: date}

	if info, ok := debug.ReadBuildInfo(); ok {
		if d.version == "" {
			d.version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if d.commit == "" {
					d.commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if d.date == "" {
					d.date = s.Value
				}
			}
		}
	}

	if d.version == "" {
		d.version = "(devel)"
	}
	if d.commit == "" {
		d.commit = "unknown"
	}
	if d.date == "" {
		d.date = "unknown"
	}
	return d
}

// shortRevision trims a full VCS hash to the usual seven characters.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getVersion returns the version string alone, for cobra's --version.
func getVersion() string {
	return resolveBuildDetails().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of novel.`,
		Run: func(cmd *cobra.Command, _ []string) {
			d := resolveBuildDetails()
			fmt.Fprintf(cmd.OutOrStdout(), "novel version %s\n", d.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", d.commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", d.date)
		},
	}
}
