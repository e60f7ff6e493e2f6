package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither a file nor piped stdin is available.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f flag or pipe JSON input")

// FileReader decodes a T from the file named by its flag, or from stdin when
// stdin is not a terminal.
type FileReader[T any] struct {
	fileFlagValue string

	// Stdin defaults to os.Stdin.
	Stdin io.Reader
	// IsTerminal reports whether Stdin is interactive. Defaults to a
	// check on os.Stdin.
	IsTerminal func() bool
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// Piped reports whether Read would consume stdin.
func (fr *FileReader[T]) Piped() bool {
	return fr.fileFlagValue == "" && !fr.isTerminal()
}

// Provided reports whether Read has an input to decode.
func (fr *FileReader[T]) Provided() bool {
	return fr.fileFlagValue != "" || fr.Piped()
}

func (fr *FileReader[T]) Read() (T, error) {
	var reader io.Reader
	var input T

	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		if fr.isTerminal() {
			return input, ErrNoInput
		}
		reader = fr.stdin()
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}

func (fr *FileReader[T]) stdin() io.Reader {
	if fr.Stdin != nil {
		return fr.Stdin
	}
	return os.Stdin
}

func (fr *FileReader[T]) isTerminal() bool {
	if fr.IsTerminal != nil {
		return fr.IsTerminal()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}
