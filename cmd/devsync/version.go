package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at release time with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

type buildInfo struct {
	Version   string
	Commit    string
	Date      string
	Modified  bool
	GoVersion string
	Platform  string
}

// currentBuild fills the gaps ldflags left from the module metadata that
// `go install` and `go build` embed in the binary.
func currentBuild(read func() (*debug.BuildInfo, bool)) buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := read()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func (b buildInfo) write(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, b.Version)
		return
	}

	rev := b.Commit
	if rev == "" {
		rev = "unknown"
	} else if len(rev) > 12 {
		rev = rev[:12]
	}
	if b.Modified {
		rev += " (modified)"
	}
	built := b.Date
	if built == "" {
		built = "unknown"
	}

	fmt.Fprintf(w, "devsync %s\n", b.Version)
	fmt.Fprintf(w, "  revision: %s\n", rev)
	fmt.Fprintf(w, "  built:    %s\n", built)
	fmt.Fprintf(w, "  go:       %s %s\n", b.GoVersion, b.Platform)
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the devsync release, source revision and Go toolchain",
		Long: `Print which devsync build is running. Include this output when reporting
a machine that did not converge; the revision pins the provider behaviour.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			currentBuild(debug.ReadBuildInfo).write(cmd.OutOrStdout(), short)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the release version")

	return cmd
}
