package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Hattyot/BalanceSnapshotter/config"
	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

const (
	title = "BALANCESNAP CONFIG WIZARD"
	// DefaultFile is where the wizard writes the generated config.
	DefaultFile = "config.gen.yaml"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers collected by the wizard.
type Answers struct {
	Platform       string
	RPCURL         string
	Tokens         string
	Accounts       string
	Timeout        string
	MaxConcurrency string
	WatchInterval  string
	JournalDir     string
}

// RunTUI launches the terminal configuration wizard and writes DefaultFile.
func RunTUI() error {
	a := Answers{
		Platform:       config.PlatformEthereum,
		RPCURL:         "http://localhost:8545",
		Timeout:        "30s",
		MaxConcurrency: "16",
		WatchInterval:  "1m",
	}
	var confirm bool

	// step 1: welcome
	step("STEP 1: CHAIN")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the snapshotter at a node.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select data source").
				Options(
					huh.NewOption("EVM node (JSON-RPC)", config.PlatformEthereum),
					huh.NewOption("Simulation", config.PlatformSimulate),
				).
				Value(&a.Platform),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.Platform == config.PlatformEthereum {
		step("STEP 2: NODE")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("RPC URL").
					Description("HTTP or websocket endpoint").
					Value(&a.RPCURL).
					Validate(validateRPC),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	step("STEP 3: WATCHLIST")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Token contracts").
				Description("Comma separated addresses").
				Value(&a.Tokens).
				Validate(validateAddresses),
			huh.NewInput().
				Title("Accounts").
				Description("Comma separated addresses").
				Value(&a.Accounts).
				Validate(validateAddresses),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: TIMING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot timeout").
				Description("Duration string (e.g. 10s, 30s)").
				Value(&a.Timeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Max concurrent queries").
				Description("0 means unlimited").
				Value(&a.MaxConcurrency).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("Watch interval").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&a.WatchInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Journal directory").
				Description("Leave empty to keep snapshots in memory only").
				Value(&a.JournalDir),
		),
	).Run()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Platform: %s\nTokens: %d\nAccounts: %d\nInterval: %s\n",
		a.Platform, len(splitList(a.Tokens)), len(splitList(a.Accounts)), a.WatchInterval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := Save(DefaultFile, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", DefaultFile)))
	return nil
}

// Build converts wizard answers to a yaml config document.
func Build(a Answers) (config.ConfigTmp, error) {
	timeout, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("invalid timeout: %w", err)
	}
	interval, err := time.ParseDuration(a.WatchInterval)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("invalid watch interval: %w", err)
	}

	cfgTmp := config.ConfigTmp{
		Platform:          a.Platform,
		Tokens:            splitList(a.Tokens),
		Accounts:          splitList(a.Accounts),
		Timeout:           timeout,
		MaxConcurrencyStr: strings.TrimSpace(a.MaxConcurrency),
		WatchInterval:     interval,
		JournalDir:        strings.TrimSpace(a.JournalDir),
	}
	if a.Platform == config.PlatformEthereum {
		cfgTmp.RPCURL = strings.TrimSpace(a.RPCURL)
	}
	return cfgTmp, nil
}

// Save writes the answers as yaml to filename.
func Save(filename string, a Answers) error {
	cfgTmp, err := Build(a)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func step(name string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render(title))
	fmt.Println(stepStyle.Render(name))
}

func validateRPC(s string) error {
	s = strings.TrimSpace(s)
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, scheme) {
			return nil
		}
	}
	if strings.HasSuffix(s, ".ipc") {
		return nil
	}
	return fmt.Errorf("must be an http(s), ws(s) or ipc endpoint")
}

func validateAddresses(s string) error {
	items := splitList(s)
	if len(items) == 0 {
		return fmt.Errorf("at least one address is required")
	}
	for _, item := range items {
		if _, err := domain.ParseAddress(item); err != nil {
			return err
		}
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a duration like 30s")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateNonNegative(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
