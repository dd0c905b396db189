package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/service"
	"github.com/spf13/cobra"
)

// transactionFlags maps command-line flags to raw input fields.
var transactionFlags = []struct {
	flag  string
	field string
}{
	{"amount", model.FieldAmount},
	{"date", model.FieldDate},
	{"time", model.FieldTime},
	{"location", model.FieldLocation},
	{"card-type", model.FieldCardType},
	{"currency", model.FieldCurrency},
	{"status", model.FieldStatus},
	{"previous-count", model.FieldPreviousCount},
	{"distance", model.FieldDistanceKm},
	{"minutes-since-last", model.FieldMinutesSinceLast},
	{"auth-method", model.FieldAuthenticationMethod},
	{"velocity", model.FieldVelocity},
	{"category", model.FieldCategory},
}

// clock is replaced in tests.
var clock = time.Now

type predictOptions struct {
	user        string
	interactive bool
	json        bool
}

type predictOutput struct {
	Label       model.Label `json:"prediction"`
	Message     string      `json:"message"`
	Probability float64     `json:"probability"`
	Recorded    bool        `json:"recorded"`
}

func predictCmd() *cobra.Command {
	var opts predictOptions

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a single transaction",
		Long: `Predict whether one transaction is fraudulent.

Fields not given as flags take the same defaults as the input forms, with the
date and time set to now. With --user the prediction is recorded in that
user's history after asking for their password.`,
		Example: `  # Score a transaction from flags
  fraudwatch predict --amount 250000 --location Tashkent --status Failed

  # Walk through every field and record the result
  fraudwatch predict --interactive --user alice`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			predictor, err := loadPredictor(app)
			if err != nil {
				return err
			}

			var accounts *account.Service
			if opts.user != "" {
				store, svc, err := initAccounts(cmd.Context(), app)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				accounts = svc
			}

			return runPredict(cmd, opts, predictor, accounts)
		},
	}

	for _, f := range transactionFlags {
		cmd.Flags().String(f.flag, "", f.field)
	}
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for every field")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "record the prediction for this user")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func runPredict(cmd *cobra.Command, opts predictOptions, predictor service.Predictor, accounts *account.Service) error {
	ctx := cmd.Context()
	c := newConsole(cmd)

	var user *model.User
	if opts.user != "" {
		password, err := c.Password("Password for " + opts.user + ":")
		if err != nil {
			return err
		}
		out := accounts.Login(ctx, opts.user, password)
		if !out.OK {
			return fmt.Errorf("%s", out.Message)
		}
		user = out.User
	}

	raw, err := transactionFromFlags(cmd)
	if err != nil {
		return err
	}
	if opts.interactive {
		if raw, err = c.Transaction(raw); err != nil {
			return err
		}
		if err := raw.Validate(); err != nil {
			return err
		}
	}

	result, err := predictor.Predict(raw)
	if err != nil {
		return err
	}

	res := predictOutput{
		Label:       result.Label,
		Probability: result.Probability,
		Message:     account.MsgLoginToRecord,
	}
	if user != nil {
		out := accounts.Record(ctx, user.ID, raw, result)
		res.Recorded = out.OK
		res.Message = out.Message
	}

	w := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(w, cli.FormatVerdict(res.Label, res.Probability))
	if res.Recorded {
		fmt.Fprintln(w, cli.FormatSuccess(res.Message))
	} else {
		fmt.Fprintln(w, cli.FormatInfo(res.Message))
	}
	return nil
}

// transactionFromFlags starts from the form defaults and applies every flag
// the user set.
func transactionFromFlags(cmd *cobra.Command) (model.RawTransaction, error) {
	raw := model.DefaultTransaction(clock())
	for _, f := range transactionFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(f.flag)
		if err := raw.Set(f.field, value); err != nil {
			return model.RawTransaction{}, err
		}
	}
	if err := raw.Validate(); err != nil {
		return model.RawTransaction{}, err
	}
	return raw, nil
}
