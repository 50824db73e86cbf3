package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skataria/bookingagent/internal/agent"
	"github.com/skataria/bookingagent/internal/availability"
	"github.com/skataria/bookingagent/internal/claude"
	"github.com/skataria/bookingagent/internal/config"
	"github.com/skataria/bookingagent/internal/database"
	"github.com/skataria/bookingagent/internal/gcal"
	"github.com/skataria/bookingagent/internal/notify"
	"github.com/skataria/bookingagent/internal/server"
	"github.com/skataria/bookingagent/internal/timeparse"
	"github.com/skataria/bookingagent/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()

	loc, ok := timeutil.ResolveLocation(cfg.BusinessTimezone)
	if !ok {
		fmt.Fprintf(os.Stderr, "Warning: unknown timezone %q, falling back to UTC\n", cfg.BusinessTimezone)
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	gcalClient, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		fatal("creating calendar client", err)
	}
	if !gcalClient.IsAuthenticated() {
		if err := authorizeCalendar(gcalClient); err != nil {
			fatal("authorizing calendar access", err)
		}
	}
	fmt.Println("Google Calendar client authenticated")

	if cfg.AnthropicAPIKey == "" {
		fmt.Println("Warning: ANTHROPIC_API_KEY not set, small talk disabled")
	}
	completer := claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeTemperature)

	bookingAgent := agent.New(agent.Config{
		Parser:    timeparse.New(loc),
		Resolver:  availability.New(gcalClient, loc),
		Calendar:  gcalClient,
		Completer: completer,
		DB:        db,
		Notifier:  initNotifier(cfg),
	})

	srv := server.New(server.Config{
		DB:    db,
		Agent: bookingAgent,
		Port:  cfg.HTTPPort,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	waitForShutdown(srv)
}

// authorizeCalendar runs the first-time OAuth flow: a one-shot callback
// listener captures the authorization code and exchanges it for a token.
func authorizeCalendar(client *gcal.Client) error {
	codeChan := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		codeChan <- code
	})

	callbackSrv := &http.Server{Addr: fmt.Sprintf(":%d", gcal.OAuthCallbackPort), Handler: mux}
	go func() {
		if err := callbackSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "OAuth callback server error: %v\n", err)
		}
	}()

	fmt.Println("Google Calendar authorization required. Open this URL in your browser:")
	fmt.Println(client.GetAuthURL())

	select {
	case code := <-codeChan:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		callbackSrv.Shutdown(shutdownCtx)
		return client.ExchangeCode(context.Background(), code)
	case <-time.After(10 * time.Minute):
		return fmt.Errorf("timed out waiting for OAuth authorization")
	}
}

func initNotifier(cfg *config.Config) notify.Notifier {
	if cfg.ResendAPIKey == "" || cfg.NotifyEmail == "" {
		fmt.Println("Email confirmations disabled (RESEND_API_KEY or BOOKING_NOTIFY_EMAIL not set)")
		return nil
	}
	notifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.NotifyEmail)
	if notifier != nil && notifier.IsConfigured() {
		fmt.Println("Email confirmation service configured (Resend)")
	}
	return notifier
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", context, err)
	os.Exit(1)
}

func waitForShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
