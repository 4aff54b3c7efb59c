// Package prompt implements the interactive terminal prompter used by the
// resolve CLI command.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/props"
	"github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

// Terminal asks on an io.Writer and reads answers from an io.Reader.
// Empty input cancels the resolution.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a prompter over the given streams.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Prompt asks for the raw value of one axis. Known raw values are offered as
// a numbered list; exact-mode numeric axes ask for a value within the bucket
// bounds instead.
func (t *Terminal) Prompt(ctx context.Context, spec resolve.PromptSpec) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Numeric {
		return t.promptNumeric(spec)
	}
	return t.promptCandidates(spec)
}

func (t *Terminal) promptCandidates(spec resolve.PromptSpec) (any, error) {
	fmt.Fprintf(t.out, "Move %s to %q\n", spec.Name, spec.Target)
	for i, c := range spec.Candidates {
		fmt.Fprintf(t.out, "  [%d] %s\n", i+1, props.String(c))
	}
	fmt.Fprint(t.out, "Raw value to write (number picks a candidate, empty cancels): ")

	line, err := t.readLine()
	if err != nil {
		return nil, err
	}
	if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(spec.Candidates) {
		return spec.Candidates[n-1], nil
	}
	return line, nil
}

func (t *Terminal) promptNumeric(spec resolve.PromptSpec) (any, error) {
	fmt.Fprintf(t.out, "Move %s to bucket %q\n", spec.Name, spec.Target)
	fmt.Fprintf(t.out, "Value between %s and %s (empty cancels): ",
		props.FormatNumber(spec.Min), props.FormatNumber(spec.Max))

	line, err := t.readLine()
	if err != nil {
		return nil, err
	}
	v, convErr := strconv.ParseFloat(line, 64)
	if convErr != nil {
		return nil, fmt.Errorf("%q is not a number: %w", line, domain.ErrCancelled)
	}
	return v, nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input closed: %w", domain.ErrCancelled)
		}
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", domain.ErrCancelled
	}
	return line, nil
}
