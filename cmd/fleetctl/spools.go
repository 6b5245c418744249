package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	spoolMaterial     string
	spoolColor        string
	spoolInitialGrams float64
	spoolPrice        float64
	spoolPurchasedBy  string
	spoolFilter       string
)

var spoolsCmd = &cobra.Command{
	Use:   "spools",
	Short: "Manage filament spools",
}

var spoolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spools",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := apiBase + "/spools"
		if spoolFilter != "" {
			path += "?material=" + url.QueryEscape(spoolFilter)
		}

		var list spoolList
		if err := newClient().getJSON(path, &list); err != nil {
			return err
		}

		if outputFmt != "table" {
			return printOutput(list)
		}

		rows := make([][]string, len(list.Spools))
		for i, s := range list.Spools {
			rows[i] = []string{
				s.ID, s.Material, s.Color,
				fmt.Sprintf("%s / %s", grams(s.CurrentGrams), grams(s.InitialGrams)),
				money(s.PurchasePrice), s.LastUsedBy,
			}
		}
		printTable([]string{"ID", "Material", "Color", "Remaining", "Price", "Last Used By"}, rows)
		return nil
	},
}

var spoolsGetCmd = &cobra.Command{
	Use:   "get <spool-id>",
	Short: "Show one spool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s spoolView
		if err := newClient().getJSON(apiBase+"/spools/"+args[0], &s); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(s)
		}
		printTable([]string{"Field", "Value"}, [][]string{
			{"ID", s.ID},
			{"Material", s.Material},
			{"Color", s.Color},
			{"Remaining", grams(s.CurrentGrams)},
			{"Initial", grams(s.InitialGrams)},
			{"Purchase price", money(s.PurchasePrice)},
			{"Price per gram", fmt.Sprintf("%.4f", s.PricePerGram)},
			{"Purchased by", s.PurchasedBy},
			{"Last used by", s.LastUsedBy},
			{"Last used at", s.LastUsedAt},
		})
		return nil
	},
}

var spoolsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a spool",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"material":      spoolMaterial,
			"color":         spoolColor,
			"initialGrams":  spoolInitialGrams,
			"purchasePrice": spoolPrice,
			"purchasedBy":   spoolPurchasedBy,
		}
		var s spoolView
		if err := newClient().postJSON(apiBase+"/spools", body, &s); err != nil {
			return err
		}
		fmt.Printf("spool %s created (%s %s, %s)\n", s.ID, s.Color, s.Material, grams(s.InitialGrams))
		return nil
	},
}

var spoolsDeleteCmd = &cobra.Command{
	Use:   "delete <spool-id>",
	Short: "Delete a spool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().deleteJSON(apiBase+"/spools/"+args[0], nil); err != nil {
			return err
		}
		fmt.Printf("spool %s deleted\n", args[0])
		return nil
	},
}

func init() {
	spoolsListCmd.Flags().StringVar(&spoolFilter, "material", "", "Filter by material")

	spoolsCreateCmd.Flags().StringVar(&spoolMaterial, "material", "", "Filament material (PLA, PETG, ABS, ...)")
	spoolsCreateCmd.Flags().StringVar(&spoolColor, "color", "", "Filament color")
	spoolsCreateCmd.Flags().Float64Var(&spoolInitialGrams, "grams", 0, "Initial mass in grams")
	spoolsCreateCmd.Flags().Float64Var(&spoolPrice, "price", 0, "Purchase price")
	spoolsCreateCmd.Flags().StringVar(&spoolPurchasedBy, "purchased-by", "", "Who bought the spool")
	_ = spoolsCreateCmd.MarkFlagRequired("material")
	_ = spoolsCreateCmd.MarkFlagRequired("grams")

	spoolsCmd.AddCommand(spoolsListCmd)
	spoolsCmd.AddCommand(spoolsGetCmd)
	spoolsCmd.AddCommand(spoolsCreateCmd)
	spoolsCmd.AddCommand(spoolsDeleteCmd)
}
