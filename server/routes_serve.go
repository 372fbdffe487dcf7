// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/matgen/matgen/backend"
	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/format"
	"github.com/matgen/matgen/logutil"
	"github.com/matgen/matgen/version"
)

// Serve startet den HTTP-Server auf dem gegebenen Listener. Eine
// Pipeline kann vor oder nach dem Start ueber [Server.RegisterPipeline]
// verfuegbar gemacht werden.
func Serve(ln net.Listener) error {
	s := &Server{addr: ln.Addr()}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	s.addr = ln.Addr()

	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	http.Handle("/", h)

	ctx, done := context.WithCancel(context.Background())

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{
		// Use http.DefaultServeMux so we get net/http/pprof for free.
		Handler: nil,
	}

	// listen for a ctrl+c and shut down
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	// Geraete beim Start loggen, damit Speicherprobleme frueh sichtbar sind
	for _, d := range backend.GetDevices() {
		slog.Info("device",
			"backend", d.Backend,
			"name", d.DeviceName,
			"total", format.HumanBytes2(d.MemoryTotal),
			"free", format.HumanBytes2(d.MemoryFree))
	}

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be
	// done otherwise error out quickly
	if !slices.Contains([]error{http.ErrServerClosed}, err) {
		return err
	}
	<-ctx.Done()
	return nil
}
