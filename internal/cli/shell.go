package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/go-packetstore/internal/utils"
	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  ls <incoming|outgoing>
  get <incoming|outgoing> <message-id>
  put <incoming|outgoing> <message-id> [field=value ...]
  del <incoming|outgoing> <message-id>
  count [incoming|outgoing]
  compact [incoming|outgoing]
  help
  exit`

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against open stores",
		Long: `Run commands interactively against open stores.

The stores stay open, and locked, until the shell exits. Arguments are
split like a POSIX shell, so quote values containing spaces:
  put outgoing 7 topic="a/b c"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				fmt.Fprintf(s.out, "Opened %s\n", s.m.Path())
				fmt.Fprintln(s.out, "Type commands. 'help' for information or 'exit' to quit.")
				return s.repl(cmd.InOrStdin())
			})
		},
	}
}

// repl reads commands from in until exit or end of input.
func (s *session) repl(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.out, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		cmd, args, err := utils.SplitCommandLine(scanner.Text())
		if errors.Is(err, utils.ErrEmptyCommand) {
			continue
		}
		if err != nil {
			fmt.Fprintln(s.out, "parse error:", err)
			continue
		}

		if cmd == "exit" || cmd == "quit" {
			return nil
		}

		if err := s.execute(cmd, args); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *session) execute(cmd string, args []string) error {
	switch cmd {
	case "ls":
		return s.ls(args)
	case "get":
		return s.get(args)
	case "put", "set":
		return s.put(args)
	case "del", "delete":
		return s.del(args)
	case "count":
		return s.count(args)
	case "compact":
		return s.compact(args)
	case "help":
		fmt.Fprintln(s.out, shellHelp)
		return nil
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}
