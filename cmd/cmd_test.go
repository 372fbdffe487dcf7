package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matgen/matgen/envconfig"
)

func TestNewCLICommands(t *testing.T) {
	root := NewCLI()

	want := []string{"serve", "predict", "profiles"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Command %q fehlt", name)
		}
	}
}

func TestAppendEnvDocs(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	appendEnvDocs(cmd, []envconfig.EnvVar{envconfig.AsMap()["MATGEN_HOST"]})

	usage := cmd.UsageString()
	if !strings.Contains(usage, "MATGEN_HOST") {
		t.Errorf("Usage enthaelt MATGEN_HOST nicht:\n%s", usage)
	}
}

func TestProfileRow(t *testing.T) {
	row := profileRow(512, 23, 20, "float32")
	want := []string{"512", "23", "20", "float32"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, erwartet %q", i, row[i], want[i])
		}
	}
}
