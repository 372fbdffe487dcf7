// cmd_serve.go - Server-Start
// Hauptfunktionen: newServeCmd, RunServer
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start matgen",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}

// RunServer - Startet den Matgen-Server
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
