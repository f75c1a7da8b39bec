package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

func newConnectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Manage port-to-port connections in the current workspace",
	}
	cmd.AddCommand(newConnectionAddCmd())
	cmd.AddCommand(newConnectionRemoveCmd())
	return cmd
}

func connectionFlags(cmd *cobra.Command, fromPlugin, toPlugin *uint64, fromPort, toPort *string) {
	cmd.Flags().Uint64Var(fromPlugin, "from-plugin", 0, "source plugin id")
	cmd.Flags().StringVar(fromPort, "from-port", "", "source output port name")
	cmd.Flags().Uint64Var(toPlugin, "to-plugin", 0, "destination plugin id")
	cmd.Flags().StringVar(toPort, "to-port", "", "destination input port name")
	_ = cmd.MarkFlagRequired("from-plugin")
	_ = cmd.MarkFlagRequired("from-port")
	_ = cmd.MarkFlagRequired("to-plugin")
	_ = cmd.MarkFlagRequired("to-port")
}

func newConnectionAddCmd() *cobra.Command {
	var fromPlugin, toPlugin uint64
	var fromPort, toPort string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Connect an output port to an input port",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{
				Type:       rtsynproto.ReqConnectionAdd,
				FromPlugin: fromPlugin,
				FromPort:   fromPort,
				ToPlugin:   toPlugin,
				ToPort:     toPort,
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
	connectionFlags(cmd, &fromPlugin, &toPlugin, &fromPort, &toPort)
	return cmd
}

func newConnectionRemoveCmd() *cobra.Command {
	var fromPlugin, toPlugin uint64
	var fromPort, toPort string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{
				Type:       rtsynproto.ReqConnectionRemove,
				FromPlugin: fromPlugin,
				FromPort:   fromPort,
				ToPlugin:   toPlugin,
				ToPort:     toPort,
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
	connectionFlags(cmd, &fromPlugin, &toPlugin, &fromPort, &toPort)
	return cmd
}
