package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sitediary/models"
)

func (a *app) listCmd() *cobra.Command {
	var (
		date, tz, site, phase, hasIssues, search, orderBy, order string
		resources                                                []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List diary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			set := func(key, val string) {
				if val != "" {
					q.Set(key, val)
				}
			}
			set("date", date)
			set("tz", tz)
			set("site", site)
			set("phase", phase)
			set("hasIssues", hasIssues)
			set("search", search)
			set("resources", strings.Join(resources, ","))
			set("orderBy", orderBy)
			set("order", order)

			filters, err := models.ParseFilters(q, nil)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			diaries, err := a.client.ListDiaries(cmd.Context(), filters)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			printTable(cmd.OutOrStdout(), diaries)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "calendar day YYYY-MM-DD")
	f.StringVar(&tz, "tz", "", "time zone for --date, e.g. Australia/Sydney")
	f.StringVar(&site, "site", "", "site id")
	f.StringVar(&phase, "phase", "", "construction phase")
	f.StringVar(&hasIssues, "has-issues", "", "true or false")
	f.StringVar(&search, "search", "", "substring of phase or description")
	f.StringSliceVar(&resources, "resources", nil, "weather,visitors,labor,equipment,materials,photos")
	f.StringVar(&orderBy, "order-by", "", "createdAt, date or currentPhase")
	f.StringVar(&order, "order", "", "asc or desc")
	return cmd
}

func printTable(w io.Writer, diaries []models.SiteDiary) {
	if len(diaries) == 0 {
		fmt.Fprintln(w, "No diary entries found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSITE\tPHASE\tISSUES\tRESOURCES\tDESCRIPTION")
	for _, d := range diaries {
		issues := "-"
		if d.HasDelaysOrIssues {
			issues = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID,
			d.Date.UTC().Format("2006-01-02"),
			models.SiteName(d.SiteLocation),
			d.CurrentPhase,
			issues,
			resourceList(d),
			truncate(d.Description, 40),
		)
	}
	tw.Flush()
}

func resourceList(d models.SiteDiary) string {
	var kinds []string
	for _, k := range models.ResourceKinds {
		if models.HasResource(d, k) {
			kinds = append(kinds, string(k))
		}
	}
	if len(kinds) == 0 {
		return "-"
	}
	return strings.Join(kinds, ",")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one diary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			d, err := a.client.GetDiary(cmd.Context(), id)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			if d == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Diary entry not found.")
				return nil
			}
			printDiary(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printDiary(w io.Writer, d *models.SiteDiary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, value)
	}
	row("ID", fmt.Sprint(d.ID))
	row("Date", d.Date.UTC().Format("2006-01-02"))
	row("Site", models.SiteName(d.SiteLocation))
	row("Weather", d.Weather)
	row("Phase", d.CurrentPhase)
	row("Description", d.Description)
	row("Work completed", d.WorkCompleted)
	if d.HasDelaysOrIssues {
		row("Delays / issues", d.DelaysOrIssues)
	}
	row("Labor", d.Labor)
	row("Equipment", d.Equipment)
	row("Materials", d.Materials)
	for _, v := range d.Visitors {
		label := models.VisitorTypeLabels[v.Type]
		row("Visitor", strings.TrimSuffix(fmt.Sprintf("%s (%s) %s", v.Name, label, v.Company), " "))
	}
	for _, img := range d.Images {
		row("Photo", img)
	}
	row("Created", d.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	row("Updated", d.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
	tw.Flush()
}

func (a *app) createCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a diary entry from a JSON payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.DiaryPayload
			if err := readPayload(cmd, file, &p); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			if err := p.Validate(); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			d, err := a.client.CreateDiary(cmd.Context(), p)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site diary saved successfully (id %d)\n", d.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "payload file, - for stdin")
	return cmd
}

// update читает текущую запись и накладывает поля из файла поверх нее
func (a *app) updateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a diary entry; fields missing from the payload keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			current, err := a.client.GetDiary(cmd.Context(), id)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			if current == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Diary entry not found.")
				return nil
			}

			raw, err := readPayloadFile(cmd, file)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			p := models.PayloadFromDiary(*current)
			if err := overlayPayload(&p, raw); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			p.ID = &id
			if err := p.Validate(); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			if _, err := a.client.UpdateDiary(cmd.Context(), p); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Site diary updated successfully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "payload file, - for stdin")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a diary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			if _, err := a.client.DeleteDiary(cmd.Context(), id); err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Site diary deleted successfully")
			return nil
		},
	}
}

func (a *app) weatherCmd() *cobra.Command {
	var site, date string
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show the daily forecast for a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.client.Weather(cmd.Context(), site, date)
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s, %.1f°C, wind %.1f km/h %s\n",
				models.SiteName(site), rep.Date, rep.ConditionText, rep.Temperature, rep.WindSpeed, rep.WindDirectionText)
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site id")
	cmd.Flags().StringVar(&date, "date", "", "day YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (a *app) sitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List known sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := a.client.Sites(cmd.Context())
			if err != nil {
				return notify(cmd.ErrOrStderr(), err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, s := range sites {
				fmt.Fprintf(tw, "%s\t%s\n", s.ID, s.Name)
			}
			return tw.Flush()
		},
	}
}
