package client

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rzbill/rendezq/internal/protocol"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand() *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}
	queueCmd.AddCommand(
		newQueueCreateCommand(),
		newQueuePutCommand(),
		newQueueTransferCommand(),
		newQueueTakeCommand(),
	)
	return queueCmd
}

func newQueueCreateCommand() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			return send(cmd.Context(), cmd.OutOrStdout(), protocol.Request{Method: "CREATE", Path: name})
		},
	}
	createCmd.Flags().String("name", "", "Queue name")
	_ = createCmd.MarkFlagRequired("name")
	return createCmd
}

func newQueuePutCommand() *cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Put a message without waiting for a taker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			data, _ := cmd.Flags().GetString("data")
			return send(cmd.Context(), cmd.OutOrStdout(), protocol.Request{Method: "PUT", Path: name, Payload: payloadFromFlag(data)})
		},
	}
	putCmd.Flags().String("name", "", "Queue name")
	putCmd.Flags().String("data", "", "Message payload (JSON, or text sent as a JSON string)")
	_ = putCmd.MarkFlagRequired("name")
	return putCmd
}

func newQueueTransferCommand() *cobra.Command {
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Offer a message and wait until a taker receives it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			data, _ := cmd.Flags().GetString("data")
			req := protocol.Request{Method: "TRANSFER", Path: name, Payload: payloadFromFlag(data)}
			withTimeout(cmd, &req)
			return send(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}
	transferCmd.Flags().String("name", "", "Queue name")
	transferCmd.Flags().String("data", "", "Message payload (JSON, or text sent as a JSON string)")
	transferCmd.Flags().Duration("timeout", 0, "Wait budget (0 probes; unset uses the server default)")
	_ = transferCmd.MarkFlagRequired("name")
	return transferCmd
}

func newQueueTakeCommand() *cobra.Command {
	takeCmd := &cobra.Command{
		Use:   "take",
		Short: "Wait for a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			req := protocol.Request{Method: "TAKE", Path: name}
			withTimeout(cmd, &req)
			return send(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}
	takeCmd.Flags().String("name", "", "Queue name")
	takeCmd.Flags().Duration("timeout", 0, "Wait budget (0 probes; unset uses the server default)")
	_ = takeCmd.MarkFlagRequired("name")
	return takeCmd
}

// withTimeout sets the timeout header only when --timeout was given.
func withTimeout(cmd *cobra.Command, req *protocol.Request) {
	if !cmd.Flags().Changed("timeout") {
		return
	}
	d, _ := cmd.Flags().GetDuration("timeout")
	req.Headers = protocol.Headers{protocol.HeaderTimeout: strconv.FormatInt(d.Milliseconds(), 10)}
}
