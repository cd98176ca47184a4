package cli

import (
	"github.com/spf13/cobra"
)

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <incoming|outgoing>",
		Short: "List every packet in a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.ls(args)
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <incoming|outgoing> <message-id>",
		Short: "Print one packet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.get(args)
			})
		},
	}
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <incoming|outgoing> <message-id> [field=value ...]",
		Short: "Store a packet, replacing any with the same message id",
		Long: `Store a packet, replacing any with the same message id.

Fields are text unless typed:
  name=value          text
  name:int=1          integer
  name:float=0.5      float
  name:bool=true      boolean
  name:hex=0001ff     bytes from hex
  name:b64=AAH/       bytes from base64

Example:
  packetstore put outgoing 42 cmd=publish qos:int=1 payload:hex=0001ff`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.put(args)
			})
		},
	}
}

// NewDelCommand creates the del command.
func NewDelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "del <incoming|outgoing> <message-id>",
		Short: "Remove a packet and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.del(args)
			})
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count [incoming|outgoing]",
		Short: "Print how many packets each store holds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.count(args)
			})
		},
	}
}

// NewCompactCommand creates the compact command.
func NewCompactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compact [incoming|outgoing]",
		Short: "Rewrite store datafiles without superseded records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session) error {
				return s.compact(args)
			})
		},
	}
}
