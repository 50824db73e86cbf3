// Command devserver runs the booking agent against an in-memory fake
// calendar. No Google credentials or API keys needed; useful for frontend
// development and manual dialogue testing.
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
	"github.com/skataria/bookingagent/internal/server"
	"github.com/skataria/bookingagent/internal/testutil"
	"github.com/skataria/bookingagent/internal/timeparse"
	"github.com/skataria/bookingagent/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()

	loc, ok := timeutil.ResolveLocation(cfg.BusinessTimezone)
	if !ok {
		fmt.Fprintf(os.Stderr, "Warning: unknown timezone %q, falling back to UTC\n", cfg.BusinessTimezone)
	}

	db, err := database.New(":memory:")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	calendar := testutil.NewFakeCalendar(loc.String())
	seedCalendar(calendar, loc)

	var completer agent.Completer = &testutil.FakeCompleter{}
	if cfg.AnthropicAPIKey != "" {
		completer = claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeTemperature)
		fmt.Println("Using the real chat completion API for small talk")
	}

	bookingAgent := agent.New(agent.Config{
		Parser:    timeparse.New(loc),
		Resolver:  availability.New(calendar, loc),
		Calendar:  calendar,
		Completer: completer,
		DB:        db,
	})

	srv := server.New(server.Config{
		DB:    db,
		Agent: bookingAgent,
		Port:  cfg.HTTPPort,
	})

	fmt.Println("Dev server: bookings go to an in-memory calendar, nothing is persisted")
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// seedCalendar blocks a few slots over the next days so availability answers
// are not uniformly "free".
func seedCalendar(calendar *testutil.FakeCalendar, loc *time.Location) {
	now := time.Now().In(loc)
	tomorrow := now.AddDate(0, 0, 1)

	morning := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, loc)
	calendar.AddEvent("Team sync", morning, morning.Add(time.Hour))

	afternoon := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 15, 0, 0, 0, loc)
	calendar.AddEvent("Design review", afternoon, afternoon.Add(30*time.Minute))
}
