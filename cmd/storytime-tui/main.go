package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/tui/app"
	"github.com/storytime/progress/internal/tui/client"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8420/ws", "WebSocket URL of the Storytime progress server")
	token := flag.String("token", os.Getenv("STORYTIME_AUTH_TOKEN"), "Auth token (if the server requires it)")
	logPath := flag.String("log", "", "Write client debug logs to this file")
	flag.Parse()

	log, closeLog, err := openLog(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ws := client.NewWSClient(*wsURL, *token, log)
	httpClient := client.NewHTTPClient(deriveHTTPBase(*wsURL), *token)

	m := app.New(ws, httpClient)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLog returns a file logger, or a no-op logger when path is empty. The
// alternate screen owns the terminal, so logs never go to stderr.
func openLog(path string) (zerolog.Logger, func() error, error) {
	if path == "" {
		return zerolog.Nop(), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return zerolog.New(f).With().Timestamp().Logger(), f.Close, nil
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8420"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
