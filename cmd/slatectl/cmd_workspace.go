package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testCmd, draftsCmd, mediaCmd, openCmd, editorCmd, createCmd)
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the host bridge answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := connect(cmd.Context()).TestConnection(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", res.Status, res.Message)
		return nil
	},
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List drafts in host order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		drafts, err := connect(cmd.Context()).GetDrafts(cmd.Context())
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDURATION\tUPDATED")
		for _, d := range drafts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%s\n",
				d.ID,
				d.Title,
				d.ApprovalStatus.Label(),
				d.Duration,
				time.UnixMilli(d.UpdatedAt).Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "List recent media",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := connect(cmd.Context()).GetRecentMedia(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tDURATION\tURL")
		for _, m := range items {
			duration := "-"
			if m.Duration != nil {
				duration = fmt.Sprintf("%.1fs", *m.Duration)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Type, duration, m.URL)
		}
		return w.Flush()
	},
}

var openCmd = &cobra.Command{
	Use:   "open [draft-id]",
	Short: "Open a draft in the host workspace, or a new draft without an id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var draftID *string
		if len(args) == 1 {
			draftID = &args[0]
		}
		res, err := connect(cmd.Context()).OpenWorkspace(cmd.Context(), draftID)
		if err != nil {
			return err
		}
		fmt.Printf("%s (draft %s)\n", res.Message, res.DraftID)
		return nil
	},
}

var editorCmd = &cobra.Command{
	Use:   "editor",
	Short: "Open the content editor for new content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := connect(cmd.Context()).OpenContentEditor(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new empty draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := connect(cmd.Context()).CreateNewDraft(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(res.DraftID)
		return nil
	},
}
