package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// prompter reads one line per prompt. Every read returns io.EOF once input is
// exhausted; a final line without a trailing newline is still returned.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// ask prints label and returns the next line without its line ending.
func (p *prompter) ask(label string) (string, error) {
	p.printf("%s", label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askInt re-prompts until the line holds an integer.
func (p *prompter) askInt(label string) (int, error) {
	for {
		line, err := p.ask(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil {
			return n, nil
		}
		p.println("❌ Please enter a whole number.")
	}
}

// askMoney re-prompts until the line holds an amount. With keepOnEmpty an
// empty line returns nil, meaning the caller keeps its current value.
func (p *prompter) askMoney(label string, keepOnEmpty bool) (*core.Money, error) {
	for {
		line, err := p.ask(label)
		if err != nil {
			return nil, err
		}
		if keepOnEmpty && strings.TrimSpace(line) == "" {
			return nil, nil
		}
		m, err := core.ParseMoney(line)
		if err == nil {
			return &m, nil
		}
		p.println("❌ Please enter a valid amount, for example 12.50.")
	}
}

// askOptional returns nil for an empty line, meaning no change.
func (p *prompter) askOptional(label string) (*string, error) {
	line, err := p.ask(label)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	return &line, nil
}
