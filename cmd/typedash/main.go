// Package main provides the CLI entrypoint for typedash.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/typedash/typedash/internal/config"
	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/race"
	"github.com/typedash/typedash/internal/realtime"
	"github.com/typedash/typedash/internal/settle"
	"github.com/typedash/typedash/internal/stats"
	"github.com/typedash/typedash/internal/store"
	"github.com/typedash/typedash/internal/tui"
	"github.com/typedash/typedash/internal/words"
)

const (
	defaultDifficulty = "medium"
	defaultUsername   = "you"
	defaultRelayURL   = "ws://localhost:8800/ws/duel"
)

var (
	raceDifficulty  string
	raceUsername    string
	raceSkipOnError bool
	raceStake       int64

	duelHost     bool
	duelJoinCode string
	duelRelayURL string
	duelWallet   string

	statsDifficulty string
	statsSince      string
	statsLast       int
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; the environment wins anyway.
		_ = err
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typedash",
		Short:         "Terminal typing races against a bot or a friend",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runRaceCmd,
	}

	rootCmd.Flags().StringVar(&raceDifficulty, "difficulty", defaultDifficulty, "easy, medium, hard, or insane")
	rootCmd.Flags().StringVar(&raceUsername, "username", defaultUsername, "display name")
	rootCmd.Flags().BoolVar(&raceSkipOnError, "skip-on-error", false, "allow committing words with uncorrected mistakes")

	rootCmd.AddCommand(newDuelCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runRaceCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "difficulty", &raceDifficulty, fileCfg.Race.Difficulty)
	applyStringConfig(cmd, "username", &raceUsername, fileCfg.Race.Username)
	applyBoolConfig(cmd, "skip-on-error", &raceSkipOnError, fileCfg.Race.SkipOnError)

	difficulty, ok := model.ParseDifficulty(raceDifficulty)
	if !ok {
		return fmt.Errorf("unknown difficulty %q (easy, medium, hard, insane)", raceDifficulty)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := tui.Options{
		Store:       st,
		Mode:        race.ModeBot,
		LocalID:     uuid.NewString(),
		Username:    raceUsername,
		Difficulty:  difficulty,
		SkipOnError: raceSkipOnError,
		Vocabulary:  loadVocabularyOverride(difficulty),
	}
	return runTUI(opts)
}

func newDuelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Race a friend through the relay",
		Args:  cobra.NoArgs,
		RunE:  runDuelCmd,
	}
	cmd.Flags().BoolVar(&duelHost, "host", false, "host a new room")
	cmd.Flags().StringVar(&duelJoinCode, "join", "", "join an existing room by code")
	cmd.Flags().StringVar(&duelRelayURL, "relay-url", defaultRelayURL, "relay WebSocket URL")
	cmd.Flags().StringVar(&duelWallet, "wallet", "", "payout wallet for staked duels")
	cmd.Flags().StringVar(&raceDifficulty, "difficulty", defaultDifficulty, "easy, medium, hard, or insane (host only)")
	cmd.Flags().StringVar(&raceUsername, "username", defaultUsername, "display name")
	cmd.Flags().Int64Var(&raceStake, "stake", 0, "stake amount (host only)")
	return cmd
}

func runDuelCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "difficulty", &raceDifficulty, fileCfg.Race.Difficulty)
	applyStringConfig(cmd, "username", &raceUsername, fileCfg.Race.Username)
	applyStringConfig(cmd, "relay-url", &duelRelayURL, fileCfg.Duel.RelayURL)
	applyStringConfig(cmd, "wallet", &duelWallet, fileCfg.Duel.Wallet)
	applyInt64Config(cmd, "stake", &raceStake, fileCfg.Race.Stake)

	if duelHost && duelJoinCode != "" {
		return fmt.Errorf("--host and --join are mutually exclusive")
	}
	difficulty, ok := model.ParseDifficulty(raceDifficulty)
	if !ok {
		return fmt.Errorf("unknown difficulty %q (easy, medium, hard, insane)", raceDifficulty)
	}
	roomCode := strings.ToUpper(strings.TrimSpace(duelJoinCode))
	if duelHost {
		roomCode = realtime.NewRoomCode()
	} else if roomCode != "" && !realtime.ValidRoomCode(roomCode) {
		return fmt.Errorf("invalid room code %q: codes are 4 characters, like K7PX", duelJoinCode)
	}
	if raceStake < 0 {
		return fmt.Errorf("--stake must be >= 0")
	}
	if raceStake > 0 && duelWallet == "" {
		return fmt.Errorf("staked duels need --wallet (or duel.wallet in the config) for the payout")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	// The stake is only locally known when hosting; a guest learns it
	// from the host's game_start. Build the settler whenever the escrow
	// is reachable so a joining winner can settle too.
	var settler *settle.Settler
	if escrowURL := os.Getenv("TYPEDASH_ESCROW_URL"); escrowURL != "" {
		settler = settle.New(settle.NewHTTPEscrow(escrowURL), settle.StoreVerifier{Store: st}, st)
	}
	if raceStake > 0 && settler == nil {
		return fmt.Errorf("staked duels need TYPEDASH_ESCROW_URL")
	}

	opts := tui.Options{
		Store:      st,
		Settler:    settler,
		Mode:       race.ModeDuel,
		Host:       duelHost,
		RelayURL:   duelRelayURL,
		RoomCode:   roomCode,
		LocalID:    uuid.NewString(),
		Username:   raceUsername,
		Wallet:     duelWallet,
		Difficulty: difficulty,
		Stake:      raceStake,
		Vocabulary: loadVocabularyOverride(difficulty),
	}
	return runTUI(opts)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show match history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N matches")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	filter := model.MatchFilter{Since: sinceTime, Last: statsLast}
	if statsDifficulty != "" {
		d, ok := model.ParseDifficulty(statsDifficulty)
		if !ok {
			return fmt.Errorf("unknown difficulty %q (easy, medium, hard, insane)", statsDifficulty)
		}
		filter.Difficulty = d
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	matches, err := st.ListMatches(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	return stats.RenderSummary(cmd.OutOrStdout(), matches, width)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func runTUI(opts tui.Options) error {
	program := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// loadVocabularyOverride reads the user word list for a tier when one
// exists. Any load problem falls back to the built-in vocabulary.
func loadVocabularyOverride(d model.Difficulty) []string {
	path := config.DefaultWordListPath(string(d))
	list, err := words.LoadWords(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logErrf("ignoring word list %s: %v\n", path, err)
		}
		return nil
	}
	return list
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typedash configuration
# Uncomment a value to enable it. CLI flags override config values.

[race]
# username = %q        # Display name
# difficulty = %q   # easy, medium, hard, or insane
# skip-on-error = false  # Allow committing words with uncorrected mistakes
# stake = 0              # Default stake for duels

[duel]
# relay-url = %q
# wallet = ""            # Payout wallet for staked duels
`,
		defaultUsername,
		defaultDifficulty,
		defaultRelayURL,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
