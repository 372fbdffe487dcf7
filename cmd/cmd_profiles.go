// cmd_profiles.go - Anzeige der Batch-Groessen-Profile
// Hauptfunktionen: newProfilesCmd, ProfilesHandler
package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/matgen/matgen/albedo"
	"github.com/matgen/matgen/api"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List batch size profiles",
		Args:  cobra.ExactArgs(0),
		RunE:  ProfilesHandler,
	}
}

// ProfilesHandler - Zeigt die Profile des Servers, oder die eingebaute
// Tabelle wenn kein Server erreichbar ist
func ProfilesHandler(cmd *cobra.Command, args []string) error {
	var rows [][]string

	client, err := api.ClientFromEnvironment()
	if err == nil {
		if resp, err := client.Profiles(cmd.Context()); err == nil {
			for _, p := range resp.Profiles {
				rows = append(rows, profileRow(p.Res, p.TotalVRAM, p.BatchSize, p.Precision))
			}
		}
	}

	if rows == nil {
		for _, p := range albedo.BatchTable() {
			rows = append(rows, profileRow(p.Res, p.TotalVRAM, p.BatchSize, string(p.Precision)))
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"RES", "VRAM (GIB)", "BATCH", "PRECISION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()

	return nil
}

func profileRow(res int, vram float64, bs int, precision string) []string {
	return []string{
		fmt.Sprintf("%d", res),
		fmt.Sprintf("%.0f", vram),
		fmt.Sprintf("%d", bs),
		precision,
	}
}
