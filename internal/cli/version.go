package cli

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/roach88/histq/internal/lifeperiod"
)

// Version is set at build time with -ldflags "-X github.com/roach88/histq/internal/cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Version    string `json:"version"`
	GoVersion  string `json:"go_version,omitempty"`
	HashDomain string `json:"hash_domain"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := &VersionInfo{Version: Version, HashDomain: lifeperiod.DomainComputation}
			if bi, ok := debug.ReadBuildInfo(); ok {
				info.GoVersion = bi.GoVersion
			}
			return newFormatter(rootOpts, cmd).Success(info)
		},
	}
}

// RenderText writes the version line.
func (v *VersionInfo) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "histq %s (%s)\n", v.Version, v.HashDomain)
	return err
}
