// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/matgen/matgen/api"
	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func versionHandler(cmd *cobra.Command, _ []string) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	serverVersion, err := client.Version(ctx)
	if err != nil {
		fmt.Println("Warning: could not connect to a running matgen instance")
	}

	if serverVersion != "" {
		fmt.Printf("matgen server version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Printf("matgen client version is %s\n", version.Version)
	}
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "matgen",
		Short:         "Material albedo prediction from a single image",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	predictCmd := newPredictCmd()
	serveCmd := newServeCmd()
	profilesCmd := newProfilesCmd()

	envVars := envconfig.AsMap()
	envs := []envconfig.EnvVar{envVars["MATGEN_HOST"]}

	for _, cmd := range []*cobra.Command{
		predictCmd,
		profilesCmd,
		serveCmd,
	} {
		switch cmd {
		case predictCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["MATGEN_HOST"],
				envVars["MATGEN_NOPROGRESS"],
				envVars["MATGEN_PRECISION"],
			})
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["MATGEN_DEBUG"],
				envVars["MATGEN_HOST"],
				envVars["MATGEN_MODELS"],
				envVars["MATGEN_ORIGINS"],
				envVars["MATGEN_VRAM"],
				envVars["MATGEN_BATCH_TABLE"],
				envVars["MATGEN_PRECISION"],
			})
		default:
			appendEnvDocs(cmd, envs)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		predictCmd,
		profilesCmd,
	)

	return rootCmd
}
