package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/forgebot/internal/config"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run configuration wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(resolveConfigPath())
		},
	}
}

// runSetup walks the operator through the fields config.json actually
// persists. Bot tokens and the data-API key are never written to disk
// (they carry json:"-" in config.Config) — the wizard tells the
// operator which environment variables to export instead.
func runSetup(cfgPath string) error {
	cfg := config.Default()

	var (
		telegramEnabled bool
		discordEnabled  bool
		dataAPIBaseURL  string
		chainIDStr      string
	)
	dataAPIBaseURL = cfg.DataAPI.BaseURL
	chainIDStr = strconv.FormatInt(cfg.Wallet.DefaultChainID, 10)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("forgebot setup").
				Description("Configures the dispatch core's channels, data API, and wallet defaults.\nBot tokens and the data-API key are read from environment variables, never saved to config.json."),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable Telegram?").
				Value(&telegramEnabled),
			huh.NewConfirm().
				Title("Enable Discord?").
				Value(&discordEnabled),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Data API base URL").
				Placeholder("https://api.example.internal").
				Value(&dataAPIBaseURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default wallet chain ID").
				Value(&chainIDStr).
				Validate(func(s string) error {
					if _, err := strconv.ParseInt(s, 10, 64); err != nil {
						return fmt.Errorf("must be a number")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	cfg.Channels.Telegram.Enabled = telegramEnabled
	cfg.Channels.Discord.Enabled = discordEnabled
	cfg.DataAPI.BaseURL = dataAPIBaseURL
	if chainID, err := strconv.ParseInt(chainIDStr, 10, 64); err == nil {
		cfg.Wallet.DefaultChainID = chainID
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("setup: save config: %w", err)
	}

	fmt.Printf("\nConfig saved to %s\n\n", cfgPath)
	fmt.Println("Before running `forgebot serve`, export:")
	if telegramEnabled {
		fmt.Println("  FORGEBOT_TELEGRAM_TOKEN")
	}
	if discordEnabled {
		fmt.Println("  FORGEBOT_DISCORD_TOKEN")
	}
	fmt.Println("  FORGEBOT_DATA_API_KEY")
	return nil
}
