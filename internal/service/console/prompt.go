package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errEmptyCode is returned when no access code was entered.
var errEmptyCode = errors.New("access code is empty")

// ReadCode prompts for an access code. Input from a terminal is not echoed;
// piped input is read up to the first newline.
func ReadCode(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd()) //nolint:gosec // File descriptors fit in int.

	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(prompt, "Access code: ")

		raw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("read access code: %w", err)
		}

		return nonEmpty(string(raw))
	}

	return readLine(in)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read access code: %w", err)
	}

	return nonEmpty(line)
}

func nonEmpty(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errEmptyCode
	}

	return code, nil
}
