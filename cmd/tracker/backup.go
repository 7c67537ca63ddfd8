package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Save or restore the ledger remotely",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Upload the local ledger, overwriting the remote copy",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ledger, err := a.openLedger()
				if err != nil {
					return err
				}
				svc, closeRemote, err := a.openBackup(cmd.Context(), ledger)
				if err != nil {
					return err
				}
				defer closeRemote()

				at, err := svc.Save(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved at %s\n", at.Local().Format("2006-01-02 15:04:05"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "load",
			Short: "Replace the local ledger with the remote copy",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ledger, err := a.openLedger()
				if err != nil {
					return err
				}
				svc, closeRemote, err := a.openBackup(cmd.Context(), ledger)
				if err != nil {
					return err
				}
				defer closeRemote()

				doc, err := svc.Load(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d absences and %d notes saved at %s\n",
					len(doc.Absences), len(doc.Notes), doc.LastUpdated.Local().Format("2006-01-02 15:04:05"))
				return nil
			},
		},
	)
	return cmd
}
