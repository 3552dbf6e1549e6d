package client

import (
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/rzbill/rendezq/internal/protocol"
)

// NewShutdownCommand constructs the `shutdown` command.
func NewShutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the server to drain and stop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(cmd.Context(), cmd.OutOrStdout(), protocol.Request{Method: "SHUTDOWN"})
		},
	}
}

// NewHealthCommand constructs the `health` command.
func NewHealthCommand() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Query the grpc.health.v1 endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _ := cmd.Flags().GetString("service")
			resp, err := newHealthTransport().Check(cmd.Context(), service)
			if err != nil {
				return err
			}
			b, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	healthCmd.Flags().String("service", "", "Service name (empty for the whole server)")
	return healthCmd
}
