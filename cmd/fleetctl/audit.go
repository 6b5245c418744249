package main

import (
	"net/url"

	"github.com/spf13/cobra"
)

var (
	auditActorFilter  string
	auditActionFilter string
	auditEntityFilter string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the lifecycle event trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if auditActorFilter != "" {
			params.Set("actor", auditActorFilter)
		}
		if auditActionFilter != "" {
			params.Set("action", auditActionFilter)
		}
		if auditEntityFilter != "" {
			params.Set("entityId", auditEntityFilter)
		}
		path := "/api/audit/v1alpha1/events"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		var list auditEventList
		if err := newClient().getJSON(path, &list); err != nil {
			return err
		}

		if outputFmt != "table" {
			return printOutput(list)
		}

		rows := make([][]string, len(list.Events))
		for i, e := range list.Events {
			rows[i] = []string{e.CreatedAt, e.Actor, e.Action, e.EntityID}
		}
		printTable([]string{"Time", "Actor", "Action", "Entity"}, rows)
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditActorFilter, "actor", "", "Filter by actor")
	auditListCmd.Flags().StringVar(&auditActionFilter, "action", "", "Filter by action (job.create, job.fail, ...)")
	auditListCmd.Flags().StringVar(&auditEntityFilter, "entity", "", "Filter by entity ID")

	auditCmd.AddCommand(auditListCmd)
}
