package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slate-workspace/go-backend/internal/bridge"
)

func init() {
	rootCmd.AddCommand(currentCmd, dismissCmd, watchCmd)
	watchCmd.Flags().Int64Var(&watchCursor, "cursor", bridge.LiveCursor, "resume after this sequence number; 0 replays retained history, -1 prints new notifications only")
}

var watchCursor int64

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the workspace the host is presenting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, ok, err := connect(cmd.Context()).CurrentWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No workspace presented.")
			return nil
		}
		draft := ws.DraftID
		if draft == "" {
			draft = "(new)"
		}
		fmt.Printf("%s %q draft=%s style=%s since=%s\n",
			ws.Kind, ws.Title, draft, ws.Style,
			time.UnixMilli(ws.PresentedAt).Format("15:04:05"))
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:       "dismiss <close|save|export|share>",
	Short:     "Perform a terminal action on the presented workspace",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"close", "save", "export", "share"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(cmd.Context()).DismissWorkspace(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Workspace dismissed.")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print WorkspaceCompleted notifications until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sub, err := connect(ctx).SubscribeWorkspaceCompletedFrom(ctx, watchCursor)
		if err != nil {
			return err
		}
		defer sub.Close()
		for evt := range sub.Events {
			draft := evt.DraftID
			if draft == "" {
				draft = "(new)"
			}
			fmt.Fprintf(os.Stdout, "%d\tWorkspaceCompleted\t%s\n", evt.Seq, draft)
		}
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("host closed the notification stream")
	},
}
