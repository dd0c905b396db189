package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/model"
)

// ErrTooManyAttempts is returned when a field is answered badly too often.
var ErrTooManyAttempts = errors.New("too many invalid answers")

const maxAttempts = 5

type question struct {
	field   string
	label   string
	options []string
}

var questions = []question{
	{field: model.FieldAmount, label: "Transaction Amount"},
	{field: model.FieldDate, label: "Transaction Date (MM/DD/YYYY)"},
	{field: model.FieldTime, label: "Transaction Time (HH:MM)"},
	{field: model.FieldLocation, label: "Transaction Location", options: model.Locations},
	{field: model.FieldCardType, label: "Card Type", options: model.CardTypes},
	{field: model.FieldCurrency, label: "Transaction Currency", options: model.Currencies},
	{field: model.FieldStatus, label: "Transaction Status", options: model.Statuses},
	{field: model.FieldPreviousCount, label: "Previous Transaction Count"},
	{field: model.FieldDistanceKm, label: "Distance Between Transactions (km)"},
	{field: model.FieldMinutesSinceLast, label: "Time Since Last Transaction (min)"},
	{field: model.FieldAuthenticationMethod, label: "Authentication Method", options: model.AuthenticationMethods},
	{field: model.FieldVelocity, label: "Transaction Velocity (per hour)"},
	{field: model.FieldCategory, label: "Transaction Category", options: model.Categories},
}

// Prompter asks for a transaction one field at a time on a line-based terminal.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter. Nil arguments fall back to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return NewPrompterWithReader(NewNonBlockingReader(reader), writer)
}

// NewPrompterWithReader creates a prompter that shares an existing reader
// with other prompts.
func NewPrompterWithReader(reader *NonBlockingReader, writer io.Writer) *Prompter {
	return &Prompter{reader: reader, writer: writer}
}

// PromptTransaction walks through every input field. An empty answer keeps
// the default; choice fields also accept the option's number.
func (p *Prompter) PromptTransaction(ctx context.Context, defaults model.RawTransaction) (model.RawTransaction, error) {
	raw := defaults

	p.printf("\n%s\n\n", FormatTitle("Enter Transaction Details"))
	for _, q := range questions {
		if err := p.ask(ctx, &raw, q); err != nil {
			return model.RawTransaction{}, err
		}
	}
	p.printf("\n")
	return raw, nil
}

func (p *Prompter) ask(ctx context.Context, raw *model.RawTransaction, q question) error {
	current, _ := raw.Value(q.field)

	if len(q.options) > 0 {
		p.printf("%s\n", StyleInfo(q.label))
		for i, opt := range q.options {
			p.printf("  %s %s\n", SubtleStyle.Render(fmt.Sprintf("[%d]", i+1)), opt)
		}
	}

	for range maxAttempts {
		prompt := q.label
		if len(q.options) > 0 {
			prompt = "Choice"
		}
		if current != "" {
			prompt += " " + SubtleStyle.Render("["+current+"]")
		}
		p.printf("%s ", FormatPrompt(prompt+":"))

		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("input closed before %s was answered: %w", q.field, err)
			}
			return err
		}
		if answer == "" {
			answer = current
		}
		if len(q.options) > 0 {
			answer = resolveChoice(answer, q.options)
		}

		if answer == "" {
			p.printf("%s\n", FormatError(q.label+" is required"))
			continue
		}
		next := *raw
		if err := next.Set(q.field, answer); err != nil {
			p.printf("%s\n", FormatError(err.Error()))
			continue
		}
		// Range checks apply only once the answer breaks a transaction that was valid.
		if err := next.Validate(); err != nil && raw.Validate() == nil {
			p.printf("%s\n", FormatError(err.Error()))
			continue
		}
		*raw = next
		return nil
	}

	return fmt.Errorf("%w: %s", ErrTooManyAttempts, q.field)
}

func resolveChoice(answer string, options []string) string {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1]
		}
		return ""
	}
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt
		}
	}
	return answer
}

func (p *Prompter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, format, args...)
}
