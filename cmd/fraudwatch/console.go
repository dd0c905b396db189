package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// console prompts on a command's input and output. One console is used per
// command run so buffered input is shared between prompts.
type console struct {
	cmd    *cobra.Command
	reader *cli.NonBlockingReader
	out    io.Writer
}

func newConsole(cmd *cobra.Command) *console {
	return &console{
		cmd:    cmd,
		reader: cli.NewNonBlockingReader(cmd.InOrStdin()),
		out:    cmd.ErrOrStderr(),
	}
}

// Line asks for one line of text.
func (c *console) Line(prompt string) (string, error) {
	fmt.Fprint(c.out, cli.FormatPrompt(prompt))
	return c.reader.ReadLine(c.cmd.Context())
}

// Password asks for a secret. On a terminal the input is not echoed.
func (c *console) Password(prompt string) (string, error) {
	if f, ok := c.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, cli.FormatPrompt(prompt))
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}
	return c.Line(prompt)
}

// Confirm asks a yes/no question; anything but yes is no.
func (c *console) Confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "\n%s (y/N) ", question)
	response, err := c.reader.ReadLine(c.cmd.Context())
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(response), "y"), nil
}

// Transaction walks through the transaction fields starting from defaults.
func (c *console) Transaction(defaults model.RawTransaction) (model.RawTransaction, error) {
	return cli.NewPrompterWithReader(c.reader, c.out).PromptTransaction(c.cmd.Context(), defaults)
}
