package utils

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrEmptyCommand = errors.New("empty command")

// SplitCommandLine splits one line of shell input into a lower-cased command
// name and its arguments, honouring quotes and backslash escapes, so that
// field values containing spaces can be typed as `payload="hello world"`.
func SplitCommandLine(line string) (string, []string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}

	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}

	return strings.ToLower(words[0]), words[1:], nil
}
