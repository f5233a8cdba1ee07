// Command mitr is a terminal client for PolicyMitr: chat with the assistant
// about your policies, listen to answers and manage your documents.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"policymitr-client/internal/api"
	"policymitr-client/internal/auth"
	"policymitr-client/internal/config"
	"policymitr-client/internal/scope"
	"policymitr-client/internal/speech"
	"policymitr-client/internal/surface"
)

func main() {
	kind := flag.String("surface", string(surface.Page), "surface to start on: widget, page or document")
	path := flag.String("path", "/chat", "initial navigation path, e.g. /policy/<id>")
	verbose := flag.Bool("v", false, "log diagnostics to stderr")
	flag.Parse()

	log.SetFlags(log.Ltime)
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg := config.Load()
	sessions, err := auth.NewStaticProvider(cfg.RequireAccessToken(), []byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Invalid access token: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, sessions)
	sh := newShell(shellOptions{
		Backend:           client,
		Player:            speech.NewExecPlayer(cfg.AudioPlayer, cfg.AudioPlayerArgs...),
		Resolver:          scope.NewResolver(),
		Out:               os.Stdout,
		DefaultLanguage:   cfg.DefaultLanguage,
		TranslateLanguage: cfg.TranslateLanguage,
	})
	if err := sh.start(surface.Kind(*kind), *path); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
	defer sh.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Connected to %s. Type /help for commands.\n", cfg.APIBaseURL)
	sh.render()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		sh.prompt()
		select {
		case <-ctx.Done():
			fmt.Println("\nBye!")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := sh.exec(ctx, line); quit {
				return
			}
		}
	}
}
