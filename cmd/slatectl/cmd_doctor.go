package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slate-workspace/go-backend/internal/bridge"
)

var flagDoctorJSON bool

func init() {
	doctorCmd.Flags().BoolVar(&flagDoctorJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the connection to the host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()
		report := bridge.NewHTTPChannel(flagAddr, flagToken).Doctor(ctx)

		if flagDoctorJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			for _, check := range report.Checks {
				mark := "ok"
				if !check.Pass {
					mark = "FAIL"
				}
				if check.Reason != "" {
					fmt.Printf("%-4s %s: %s\n", mark, check.Name, check.Reason)
				} else {
					fmt.Printf("%-4s %s\n", mark, check.Name)
				}
			}
		}
		if !report.Ready {
			return errors.New("host is not ready")
		}
		return nil
	},
}
