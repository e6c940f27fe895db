// Точка входа терминальной консоли Manual Console.
// Работает напрямую с REST API руководств по токену доступа.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/config"
	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:     "manual-tui",
	Short:   "Terminal console for PDF manuals",
	Version: config.Version,
	Long: `Terminal console for uploaded PDF manuals, FAQs and fine-tuning jobs.

Tabs switch between record kinds, space selects rows and
action keys run batch operations on the selection.

Examples:
  manual-tui --api-url https://manuals.example.com --token $TOKEN
  manual-tui --token-file ~/.config/manuals/token`,
	SilenceUsage: true,
	RunE:         runConsole,
}

func init() {
	rootCmd.Flags().String("api-url", os.Getenv("MC_API_BASE_URL"), "Base URL of the manuals API (env MC_API_BASE_URL)")
	rootCmd.Flags().String("token", os.Getenv("MC_API_TOKEN"), "Access token (env MC_API_TOKEN)")
	rootCmd.Flags().String("token-file", "", "Read the access token from a file")
	rootCmd.Flags().String("ca-cert", os.Getenv("MC_API_CA_CERT_PATH"), "CA certificate for the API (env MC_API_CA_CERT_PATH)")
	rootCmd.Flags().Duration("timeout", 30*time.Second, "API request timeout")
	rootCmd.Flags().String("log-file", "", "Write debug logs to a file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConsole(cmd *cobra.Command, _ []string) error {
	apiURL, _ := cmd.Flags().GetString("api-url")
	token, _ := cmd.Flags().GetString("token")
	tokenFile, _ := cmd.Flags().GetString("token-file")
	caCert, _ := cmd.Flags().GetString("ca-cert")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	logFile, _ := cmd.Flags().GetString("log-file")

	if apiURL == "" {
		return errors.New("--api-url is required")
	}

	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return errors.New("--token or --token-file is required")
	}

	// Экран занят TUI: логи пишутся в файл либо отбрасываются
	logger, closeLog, err := setupLogger(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := apiclient.New(strings.TrimRight(apiURL, "/")+"/api", caCert, timeout, apiclient.StaticToken(token), logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model, err := tui.New(ctx, client, console.Options{Logger: logger})
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func setupLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}
