// Package confirm is the pluggable gate between a sized order and its
// submission: present the order terms, get an accept/decline back.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer decides whether an order is submitted. A false return is a
// normal decline, not an error.
type Confirmer interface {
	Confirm(terms string) (bool, error)
}

// Prompt asks on a terminal. Only "y" or "yes" (case-insensitive)
// counts as acceptance; anything else, including EOF, declines.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt() *Prompt {
	return &Prompt{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewPromptWith wires explicit streams, used by tests.
func NewPromptWith(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

func (p *Prompt) Confirm(terms string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s\ny or n: ", terms); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		// EOF with no input is a decline, not a failure.
		return false, nil
	}

	answer := strings.ToUpper(strings.TrimSpace(line))
	return answer == "Y" || answer == "YES", nil
}

// Auto is a headless confirmation policy with a fixed answer, for
// scheduled runs and tests.
type Auto struct {
	Accept bool
}

func (a Auto) Confirm(terms string) (bool, error) {
	fmt.Println(terms)
	if a.Accept {
		fmt.Println("[CONFIRM] auto-accepted")
	} else {
		fmt.Println("[CONFIRM] auto-declined")
	}
	return a.Accept, nil
}
