package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage saved workspaces",
	}
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceLoadCmd())
	cmd.AddCommand(newWorkspaceNewCmd())
	cmd.AddCommand(newWorkspaceSaveCmd())
	cmd.AddCommand(newWorkspaceEditCmd())
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceList})
			if err != nil {
				return err
			}
			return printJSON(resp.Workspaces)
		},
	}
}

func newWorkspaceLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Load a saved workspace, replacing the running graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceLoad, WorkspaceName: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newWorkspaceNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create and load a new empty workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceNew, WorkspaceName: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

func newWorkspaceSaveCmd() *cobra.Command {
	var saveAs string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist the current workspace to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceSave}
			if saveAs != "" {
				req.SaveAs = &saveAs
			}
			resp, err := roundTrip(req)
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&saveAs, "as", "", "save under a different workspace name")
	return cmd
}

func newWorkspaceEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <name>",
		Short: "Load a saved workspace for interactive editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(rtsynproto.DaemonRequest{Type: rtsynproto.ReqWorkspaceEdit, WorkspaceName: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}
