package cmd

import (
	"fmt"
	"os"
	"strings"

	"ragbot-cli/cmd/config"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// versionCmd prints the CLI version and, when the server is reachable,
// compares it against the backend's reported version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and server versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ragbot %s\n", formatVersionForDisplay(Version))

		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			return
		}
		api := newAPIClient(clientCfg.URL)
		health, err := api.CheckHealth()
		if err != nil {
			fmt.Fprintf(os.Stderr, "server: unreachable (%v)\n", err)
			return
		}
		fmt.Printf("server %s (%s)\n", health.Version, health.Status)

		if drift, ok := compareVersions(Version, health.Version); ok && drift != 0 {
			if drift < 0 {
				OutputWarning("CLI version is older than the server; consider upgrading")
			} else {
				OutputWarning("CLI version is newer than the server")
			}
		}
	},
}

// compareVersions compares two semver strings. Returns (cmp, true) when both
// parse; cmp < 0 means a is older than b.
func compareVersions(a, b string) (int, bool) {
	va, err := semver.NewVersion(strings.TrimPrefix(a, "v"))
	if err != nil {
		return 0, false
	}
	vb, err := semver.NewVersion(strings.TrimPrefix(b, "v"))
	if err != nil {
		return 0, false
	}
	return va.Compare(vb), true
}

func formatVersionForDisplay(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "dev"
	}
	if _, err := semver.NewVersion(strings.TrimPrefix(v, "v")); err == nil && !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
