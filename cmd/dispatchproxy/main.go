// Command dispatchproxy runs the adaptive layer-7 reverse proxy: a single
// HTTP listener that forwards each request to one of a fixed set of
// upstream workers, picked by a pluggable, auto-switching dispatch policy.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pmacedo/dispatchproxy/internal/dispatch"
	"github.com/pmacedo/dispatchproxy/internal/policy"
	"github.com/pmacedo/dispatchproxy/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:1337", "listen address")
	workersFlag := flag.String("workers", "", "comma-separated worker host URLs, e.g. http://localhost:3000,http://localhost:3001")
	policyFlag := flag.String("policy", "round_robin", "initial policy: round_robin or least_connections")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if strings.TrimSpace(*workersFlag) == "" {
		log.Fatal().Msg("no worker hosts specified (-workers)")
	}
	hosts := strings.Split(*workersFlag, ",")
	for i := range hosts {
		hosts[i] = strings.TrimSpace(hosts[i])
	}

	initial := policy.RoundRobin
	if *policyFlag == "least_connections" {
		initial = policy.LeastConnections
	}

	ctrl, err := dispatch.New(hosts, initial)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct dispatch controller")
	}

	srv := server.New(ctrl)
	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Engine(),
	}

	log.Info().
		Str("addr", *addr).
		Str("policy", string(initial)).
		Strs("workers", hosts).
		Msg("dispatchproxy listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("dispatchproxy listener failed")
		}
	case <-sig:
		log.Info().Msg("shutdown requested, draining in-flight requests")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}

	log.Info().Msg("dispatchproxy shut down")
}
