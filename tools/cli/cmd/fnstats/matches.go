package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

func newMatchesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "matches <tournament>",
		Short: "List the matches and weapon types of a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()
			return listMatches(cmd, logic.NewTournamentService(s.pg), args[0])
		},
	}
}

func newTournamentsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tournaments",
		Short: "List discovered tournaments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			list, err := logic.NewTournamentService(s.pg).GetTournaments(cmd.Context())
			if err != nil {
				return err
			}
			renderTournaments(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func listMatches(cmd *cobra.Command, svc logic.TournamentService, id string) error {
	ctx := cmd.Context()
	if _, err := svc.GetTournament(ctx, id); err != nil {
		return err
	}
	matches, err := svc.GetMatches(ctx, id)
	if err != nil {
		return err
	}
	weapons, err := svc.GetWeaponTypes(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches discovered yet.")
		return nil
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%3d  %s\n", i+1, m.ID)
	}
	fmt.Fprintf(out, "\nWeapon types (%d):", len(weapons))
	for _, w := range weapons {
		fmt.Fprintf(out, " %q", w.ID)
	}
	fmt.Fprintln(out)
	return nil
}

func renderTournaments(w io.Writer, list []models.Tournament) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tournaments discovered yet.")
		return
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("ID", "MATCHES", "PROCESSED", "DISCOVERED")
	for _, t := range list {
		table.Append(t.ID, t.TotalMatches, t.ProcessedMatches, t.DiscoveredAt.Format("2006-01-02 15:04"))
	}
	table.Render()
}
