package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	printerName       string
	printerModel      string
	printerPowerDraw  float64
	printerEnergyCost float64
	printerStatus     string
)

var printersCmd = &cobra.Command{
	Use:   "printers",
	Short: "Manage fleet printers",
}

var printersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List printers",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := apiBase + "/printers"
		if printerStatus != "" {
			path += "?status=" + url.QueryEscape(printerStatus)
		}

		var list printerList
		if err := newClient().getJSON(path, &list); err != nil {
			return err
		}

		if outputFmt != "table" {
			return printOutput(list)
		}

		rows := make([][]string, len(list.Printers))
		for i, p := range list.Printers {
			rows[i] = []string{
				p.ID, truncate(p.Name, 30), p.Status,
				grams(p.FilamentUsedGrams), p.LastOperator,
			}
		}
		printTable([]string{"ID", "Name", "Status", "Filament Used", "Last Operator"}, rows)
		return nil
	},
}

var printersGetCmd = &cobra.Command{
	Use:   "get <printer-id>",
	Short: "Show one printer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p printerView
		if err := newClient().getJSON(apiBase+"/printers/"+args[0], &p); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(p)
		}
		printTable([]string{"Field", "Value"}, [][]string{
			{"ID", p.ID},
			{"Name", p.Name},
			{"Model", p.Model},
			{"Status", p.Status},
			{"Power draw (kWh)", fmt.Sprintf("%.3f", p.PowerDrawKwh)},
			{"Energy unit price", money(p.EnergyUnitPrice)},
			{"Filament used", grams(p.FilamentUsedGrams)},
			{"Last job", p.LastJobID},
			{"Last operator", p.LastOperator},
			{"Created", p.CreatedAt},
		})
		return nil
	},
}

var printersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a printer",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"name":            printerName,
			"model":           printerModel,
			"powerDrawKwh":    printerPowerDraw,
			"energyUnitPrice": printerEnergyCost,
		}
		var p printerView
		if err := newClient().postJSON(apiBase+"/printers", body, &p); err != nil {
			return err
		}
		fmt.Printf("printer %s created (%s)\n", p.ID, p.Name)
		return nil
	},
}

var printersDeleteCmd = &cobra.Command{
	Use:   "delete <printer-id>",
	Short: "Delete a printer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().deleteJSON(apiBase+"/printers/"+args[0], nil); err != nil {
			return err
		}
		fmt.Printf("printer %s deleted\n", args[0])
		return nil
	},
}

func init() {
	printersListCmd.Flags().StringVar(&printerStatus, "status", "", "Filter by status (available, in_use, maintenance)")

	printersCreateCmd.Flags().StringVar(&printerName, "name", "", "Printer name")
	printersCreateCmd.Flags().StringVar(&printerModel, "model", "", "Printer model")
	printersCreateCmd.Flags().Float64Var(&printerPowerDraw, "power-draw", 0, "Power draw in kWh")
	printersCreateCmd.Flags().Float64Var(&printerEnergyCost, "energy-price", 0, "Energy price per kWh")
	_ = printersCreateCmd.MarkFlagRequired("name")

	printersCmd.AddCommand(printersListCmd)
	printersCmd.AddCommand(printersGetCmd)
	printersCmd.AddCommand(printersCreateCmd)
	printersCmd.AddCommand(printersDeleteCmd)
}
