package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"chemtutor/internal/tui"
)

func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("TUTOR_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8081"
	}
	var (
		baseURL string
		timeout time.Duration
	)
	flag.StringVar(&baseURL, "url", defaultURL, "Base URL of the tutor API")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Per-request timeout")
	flag.Parse()

	client := tui.NewClient(baseURL, timeout)
	p := tea.NewProgram(tui.New(client, timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tutor:", err)
		os.Exit(1)
	}
}
