package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mbolis/rpe-survey/gate"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/routes/middlewares"
)

var errWrongPassphrase = errors.New("incorrect passphrase")

var trainerCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Open the trainer view: dashboard link and team summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return runTrainer(cmd.Context(), http.DefaultClient, passphrase, cmd.OutOrStdout())
	},
}

// readPassphrase reads without echo when stdin is a terminal.
func readPassphrase(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Trainer passphrase: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runTrainer(ctx context.Context, hc *http.Client, passphrase string, out io.Writer) error {
	if trainerPassphrase != "" && !gate.Check(passphrase, trainerPassphrase) {
		return errWrongPassphrase
	}

	summary, err := fetchSummary(ctx, hc, passphrase)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Dashboard: %s\n", dashboardURL)
	fmt.Fprintf(out, "Team average RPE: %.2f\n", summary.TeamAverage)
	fmt.Fprintf(out, "Athletes tracked: %d\n", summary.Athletes)
	fmt.Fprintf(out, "Workout sessions: %d\n", summary.Sessions)
	return nil
}

func fetchSummary(ctx context.Context, hc *http.Client, passphrase string) (*model.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/api/reports/summary", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(middlewares.PassphraseHeader, passphrase)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach the server: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errWrongPassphrase
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("server answered %s", resp.Status)
	}

	var summary model.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &summary, nil
}
