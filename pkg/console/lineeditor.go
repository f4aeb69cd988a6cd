// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	historyFileName = ".consolerw_history"
	historySize     = 500
)

// LineEditor reads operator input: readline with history on a
// terminal, a buffered reader with no line length limit otherwise.
type LineEditor struct {
	interactive bool
	rl          *readline.Instance

	reader *bufio.Reader
	out    io.Writer
}

func NewLineEditor() *LineEditor {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return NewPipedLineEditor(os.Stdin, os.Stdout)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath(),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Msg("readline init failed, using basic input")
		return NewPipedLineEditor(os.Stdin, os.Stdout)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

// NewPipedLineEditor reads lines from in and echoes prompts to out.
func NewPipedLineEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, historyFileName)
}

// GetLine returns io.EOF at end of input and on interrupt.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getPipedLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	trimmed := strings.TrimSpace(line)
	if trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getPipedLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)

	line, err := le.reader.ReadString('\n')
	if err != nil {
		// a last line without a newline still counts
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line[:len(line)-1], "\r"), nil
}

func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}

func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}
