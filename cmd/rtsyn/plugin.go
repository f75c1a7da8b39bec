package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage installed plugins",
	}
	cmd.AddCommand(newPluginListCmd())
	cmd.AddCommand(newPluginInstallCmd())
	cmd.AddCommand(newPluginUninstallCmd())
	cmd.AddCommand(newPluginAddCmd())
	cmd.AddCommand(newPluginRemoveCmd())
	return cmd
}

func newPluginListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqPluginList})
			if err != nil {
				return err
			}
			return printJSON(resp.Plugins)
		},
	}
}

func newPluginInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <folder>",
		Short: "Install a plugin from a folder containing plugin.toml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqPluginInstall, Path: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newPluginUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <kind-or-name>",
		Short: "Uninstall a previously installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqPluginUninstall, Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newPluginAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <kind-or-name>",
		Short: "Add an instance of an installed plugin to the current workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqPluginAdd, Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("added plugin id=%d\n", resp.PluginID)
			return nil
		},
	}
}

func newPluginRemoveCmd() *cobra.Command {
	var id uint64
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a plugin instance from the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqPluginRemove, ID: id})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "plugin instance id to remove")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
