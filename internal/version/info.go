// Package version provides version information and the version command for txconfirm.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Build-time variables injected via ldflags:
//
//	-X github.com/altuslabsxyz/txconfirm/internal/version.Version={{.Version}}
//	-X github.com/altuslabsxyz/txconfirm/internal/version.GitCommit={{.FullCommit}}
//	-X github.com/altuslabsxyz/txconfirm/internal/version.BuildDate={{.Date}}
var (
	// Version defaults to "0.1.0-dev" for local builds.
	Version = "0.1.0-dev"

	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains all version and build information.
type Info struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	GitCommit string   `json:"commit" yaml:"commit"`
	BuildDate string   `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string   `json:"go" yaml:"go"`
	Platform  string   `json:"platform" yaml:"platform"`
	BuildTags string   `json:"build_tags,omitempty" yaml:"build_tags,omitempty"`
	BuildDeps []string `json:"build_deps,omitempty" yaml:"build_deps,omitempty"`
}

// NewInfo returns the build information of the running binary.
func NewInfo(name string) Info {
	return Info{
		Name:      name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// WithBuildDeps populates build tags and module dependencies from runtime/debug.
func (i Info) WithBuildDeps() Info {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}

	var tags []string
	for _, setting := range buildInfo.Settings {
		if setting.Key == "-tags" && setting.Value != "" {
			tags = append(tags, setting.Value)
		}
	}
	if len(tags) > 0 {
		i.BuildTags = strings.Join(tags, ",")
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		s := dep.Path + "@" + dep.Version
		if dep.Replace != nil {
			s += " => " + dep.Replace.Path + "@" + dep.Replace.Version
		}
		deps = append(deps, s)
	}
	sort.Strings(deps)
	i.BuildDeps = deps

	return i
}

// String returns a short human-readable summary.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s version %s\n", i.Name, i.Version)
	fmt.Fprintf(&sb, "  commit:     %s\n", i.GitCommit)
	fmt.Fprintf(&sb, "  build date: %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  go:         %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  platform:   %s\n", i.Platform)
	return sb.String()
}

// LongString returns YAML including build dependencies.
func (i Info) LongString() string {
	data, err := yaml.Marshal(i)
	if err != nil {
		return i.String()
	}
	return string(data)
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write prints i to w in the requested form.
func (i Info) Write(w io.Writer, long, asJSON bool) error {
	if long {
		i = i.WithBuildDeps()
	}
	switch {
	case asJSON:
		s, err := i.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	case long:
		_, err := io.WriteString(w, i.LongString())
		return err
	default:
		_, err := io.WriteString(w, i.String())
		return err
	}
}

// NewCmd creates the version command. jsonMode reports the root --json flag.
func NewCmd(name string, jsonMode func() bool) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version information including build details. Use --long for dependency info.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON := jsonMode != nil && jsonMode()
			return NewInfo(name).Write(cmd.OutOrStdout(), long, asJSON)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show detailed version info including build dependencies")
	return cmd
}
