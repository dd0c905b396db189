package main

import (
	"github.com/Veraticus/fraudwatch/internal/tui"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive terminal app",
		Long: `Open the terminal app: log in, register, or continue as a guest, then
enter transactions and see the fraud verdict. Signed-in users can browse
their recorded predictions with ctrl+t.`,
		RunE: runTUI,
	}

	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().String("record", "", "record every update to a session directory under this path")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	record, _ := cmd.Flags().GetString("record")

	app, err := loadApp()
	if err != nil {
		return err
	}

	predictor, err := loadPredictor(app)
	if err != nil {
		return err
	}

	store, accounts, err := initAccounts(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	opts := []tui.Option{
		tui.WithPredictor(predictor),
		tui.WithAccounts(accounts),
		tui.WithHistory(store),
		tui.WithTheme(themes.GetTheme(viper.GetString("tui.theme"))),
		tui.WithSessionTTL(app.SessionTTL),
	}
	if record != "" {
		opts = append(opts, tui.WithRecorder(record))
	}

	return tui.Run(ctx, opts...)
}
