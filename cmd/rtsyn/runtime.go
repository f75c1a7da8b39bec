package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

func newRuntimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "Inspect and change the current workspace's timing settings",
	}
	cmd.AddCommand(newRuntimeSettingsCmd())
	cmd.AddCommand(newRuntimeUMLCmd())
	return cmd
}

func newRuntimeSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage timing settings (frequency, period, cores, UI rate, catch-up bound)",
	}
	cmd.AddCommand(newRuntimeSettingsShowCmd())
	cmd.AddCommand(newRuntimeSettingsSetCmd())
	cmd.AddCommand(newRuntimeSettingsSaveCmd())
	cmd.AddCommand(newRuntimeSettingsRestoreCmd())
	cmd.AddCommand(newRuntimeSettingsOptionsCmd())
	return cmd
}

func newRuntimeSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current workspace's timing settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeSettingsShow})
			if err != nil {
				return err
			}
			fmt.Println(resp.SettingsRaw)
			return nil
		},
	}
}

func newRuntimeSettingsSetCmd() *cobra.Command {
	var settingsJSON string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the current workspace's timing settings",
		Long:  "Replace the current workspace's timing settings from a JSON document matching TimingSettings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeSettingsSet, SettingsJSON: settingsJSON})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&settingsJSON, "json", "", "TimingSettings encoded as JSON")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newRuntimeSettingsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Persist the current workspace's settings alongside its graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeSettingsSave})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newRuntimeSettingsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore default timing settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeSettingsRestore})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newRuntimeSettingsOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Show the valid ranges for timing settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeSettingsOptions})
			if err != nil {
				return err
			}
			return printJSON(resp.Options)
		},
	}
}

func newRuntimeUMLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uml",
		Short: "Render the current workspace's plugin graph as a PlantUML diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqRuntimeUMLDiagram})
			if err != nil {
				return err
			}
			fmt.Println(resp.UML)
			return nil
		},
	}
}
