package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	jobProject     string
	jobPrinter     string
	jobOperator    string
	jobDuration    int
	jobUsageSpecs  []string
	jobSalePrice   float64
	jobNotes       string
	jobActualGrams float64
	jobForce       bool

	jobStatusFilter   string
	jobPrinterFilter  string
	jobOperatorFilter string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage print jobs",
}

// parseUsageSpecs turns --use spool-id=grams flags into request lines.
func parseUsageSpecs(specs []string) ([]map[string]any, error) {
	usage := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid usage spec %q (expected spool-id=grams)", spec)
		}
		g, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid grams in %q: %w", spec, err)
		}
		usage = append(usage, map[string]any{"spoolId": parts[0], "grams": g})
	}
	return usage, nil
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a print job",
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := parseUsageSpecs(jobUsageSpecs)
		if err != nil {
			return err
		}

		body := map[string]any{
			"projectName":     jobProject,
			"printerId":       jobPrinter,
			"operator":        jobOperator,
			"durationMinutes": jobDuration,
			"usage":           usage,
			"notes":           jobNotes,
		}
		if cmd.Flags().Changed("sale-price") {
			body["salePrice"] = jobSalePrice
		}

		var job jobView
		if err := newClient().postJSON(apiBase+"/jobs", body, &job); err != nil {
			return err
		}
		fmt.Printf("job %s started: %s on %s, estimated %s, cost %s\n",
			job.ID, job.ProjectName, job.PrinterID, grams(job.EstimatedGrams), money(job.TotalCost))
		return nil
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List print jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if jobStatusFilter != "" {
			params.Set("status", jobStatusFilter)
		}
		if jobPrinterFilter != "" {
			params.Set("printerId", jobPrinterFilter)
		}
		if jobOperatorFilter != "" {
			params.Set("operator", jobOperatorFilter)
		}
		path := apiBase + "/jobs"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		var list jobList
		if err := newClient().getJSON(path, &list); err != nil {
			return err
		}

		if outputFmt != "table" {
			return printOutput(list)
		}

		rows := make([][]string, len(list.Jobs))
		for i, j := range list.Jobs {
			rows[i] = []string{
				j.ID, truncate(j.ProjectName, 25), j.Status, j.Operator,
				grams(j.EstimatedGrams), money(j.TotalCost),
			}
		}
		printTable([]string{"ID", "Project", "Status", "Operator", "Estimated", "Cost"}, rows)
		return nil
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one print job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var j jobView
		if err := newClient().getJSON(apiBase+"/jobs/"+args[0], &j); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(j)
		}

		rows := [][]string{
			{"ID", j.ID},
			{"Project", j.ProjectName},
			{"Printer", j.PrinterID},
			{"Operator", j.Operator},
			{"Status", j.Status},
			{"Duration", fmt.Sprintf("%d min", j.DurationMinutes)},
			{"Estimated", grams(j.EstimatedGrams)},
			{"Energy cost", money(j.EnergyCost)},
			{"Filament cost", money(j.FilamentCost)},
			{"Total cost", money(j.TotalCost)},
			{"Started", j.StartedAt},
			{"Completed", j.CompletedAt},
		}
		if j.ActualGrams != nil {
			rows = append(rows, []string{"Actual", grams(*j.ActualGrams)})
		}
		if j.SalePrice != nil {
			rows = append(rows, []string{"Sale price", money(*j.SalePrice)})
		}
		if j.Profit != nil {
			rows = append(rows, []string{"Profit", money(*j.Profit)})
		}
		for _, u := range j.Usage {
			rows = append(rows, []string{"Spool " + u.SpoolID, grams(u.Grams)})
		}
		printTable([]string{"Field", "Value"}, rows)
		return nil
	},
}

var jobsCompleteCmd = &cobra.Command{
	Use:   "complete <job-id>",
	Short: "Mark a job completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var j jobView
		if err := newClient().postJSON(apiBase+"/jobs/"+args[0]+":complete", nil, &j); err != nil {
			return err
		}
		fmt.Printf("job %s completed\n", j.ID)
		return nil
	},
}

var jobsFailCmd = &cobra.Command{
	Use:   "fail <job-id>",
	Short: "Mark a job failed, returning unused filament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var j jobView
		body := map[string]any{"actualGrams": jobActualGrams}
		if err := newClient().postJSON(apiBase+"/jobs/"+args[0]+":fail", body, &j); err != nil {
			return err
		}
		fmt.Printf("job %s failed, %s wasted of %s estimated\n",
			j.ID, grams(jobActualGrams), grams(j.EstimatedGrams))
		return nil
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a job, returning its full reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var j jobView
		if err := newClient().postJSON(apiBase+"/jobs/"+args[0]+":cancel", nil, &j); err != nil {
			return err
		}
		fmt.Printf("job %s cancelled\n", j.ID)
		return nil
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job, reversing its inventory accounting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := apiBase + "/jobs/" + args[0]
		if jobForce {
			path += "?force=true"
		}
		if err := newClient().deleteJSON(path, nil); err != nil {
			return err
		}
		fmt.Printf("job %s deleted\n", args[0])
		return nil
	},
}

var jobsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Complete all overdue jobs now",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]int
		if err := newClient().postJSON(apiBase+"/jobs:sweep", nil, &resp); err != nil {
			return err
		}
		fmt.Printf("%d overdue job(s) completed\n", resp["completed"])
		return nil
	},
}

var jobsQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a job without starting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := parseUsageSpecs(jobUsageSpecs)
		if err != nil {
			return err
		}

		body := map[string]any{
			"printerId":       jobPrinter,
			"durationMinutes": jobDuration,
			"usage":           usage,
		}
		var resp struct {
			Quote struct {
				EnergyCost   float64 `json:"energyCost"`
				FilamentCost float64 `json:"filamentCost"`
				TotalCost    float64 `json:"totalCost"`
			} `json:"quote"`
			SuggestedSalePrice float64 `json:"suggestedSalePrice"`
		}
		if err := newClient().postJSON(apiBase+"/jobs:quote", body, &resp); err != nil {
			return err
		}

		if outputFmt != "table" {
			return printOutput(resp)
		}
		printTable([]string{"Item", "Amount"}, [][]string{
			{"Energy", money(resp.Quote.EnergyCost)},
			{"Filament", money(resp.Quote.FilamentCost)},
			{"Total cost", money(resp.Quote.TotalCost)},
			{"Suggested price", money(resp.SuggestedSalePrice)},
		})
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{jobsCreateCmd, jobsQuoteCmd} {
		c.Flags().StringVar(&jobPrinter, "printer", "", "Printer ID")
		c.Flags().IntVar(&jobDuration, "duration", 0, "Expected duration in minutes")
		c.Flags().StringArrayVar(&jobUsageSpecs, "use", nil, "Filament usage as spool-id=grams (repeatable)")
		_ = c.MarkFlagRequired("printer")
		_ = c.MarkFlagRequired("duration")
		_ = c.MarkFlagRequired("use")
	}
	jobsCreateCmd.Flags().StringVar(&jobProject, "project", "", "Project name")
	jobsCreateCmd.Flags().StringVar(&jobOperator, "operator", "", "Operator starting the job")
	jobsCreateCmd.Flags().Float64Var(&jobSalePrice, "sale-price", 0, "Agreed sale price")
	jobsCreateCmd.Flags().StringVar(&jobNotes, "notes", "", "Free-form notes")
	_ = jobsCreateCmd.MarkFlagRequired("project")
	_ = jobsCreateCmd.MarkFlagRequired("operator")

	jobsFailCmd.Flags().Float64Var(&jobActualGrams, "actual-grams", 0, "Filament actually consumed before the failure")
	jobsDeleteCmd.Flags().BoolVar(&jobForce, "force", false, "Allow deleting a job that is still in progress")

	jobsListCmd.Flags().StringVar(&jobStatusFilter, "status", "", "Filter by status")
	jobsListCmd.Flags().StringVar(&jobPrinterFilter, "printer", "", "Filter by printer ID")
	jobsListCmd.Flags().StringVar(&jobOperatorFilter, "operator", "", "Filter by operator")

	jobsCmd.AddCommand(jobsCreateCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsCompleteCmd)
	jobsCmd.AddCommand(jobsFailCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
	jobsCmd.AddCommand(jobsSweepCmd)
	jobsCmd.AddCommand(jobsQuoteCmd)
}
