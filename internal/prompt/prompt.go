// Package prompt asks the operator for the inputs a tool was not given on
// the command line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoSelection means the operator answered with an empty line.
var ErrNoSelection = errors.New("no file selected")

const NoSelectionMessage = "No file selected. Exiting."

type Resolver struct {
	in  *bufio.Reader
	out io.Writer
}

func NewResolver(in io.Reader, out io.Writer) *Resolver {
	return &Resolver{in: bufio.NewReader(in), out: out}
}

// Path returns the first positional argument, or asks for a path when there
// is none.
func (r *Resolver) Path(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}

	fmt.Fprint(r.out, "No file path provided. Enter a file path: ")
	line, err := r.readLine()
	if err != nil {
		return "", err
	}
	// Paths dragged into a terminal arrive quoted.
	line = strings.Trim(line, `"'`)
	if line == "" {
		return "", ErrNoSelection
	}
	return line, nil
}

// SearchTerm asks for an item to plot. An empty answer means skip.
func (r *Resolver) SearchTerm() (string, error) {
	fmt.Fprint(r.out, "\nEnter item name to plot trends (or leave blank to skip): ")
	return r.readLine()
}

// readLine treats end of input as an empty answer.
func (r *Resolver) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
