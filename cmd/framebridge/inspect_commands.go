package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framebridge/internal/ipc"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks tracked by the daemon supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Tasks()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Tasks)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Tasks) == 0 {
					fmt.Fprintln(stdout, "No tasks running")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Task", "State", "Exempt", "Age"},
					taskRows(resp.Tasks, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCommandsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List commands the UI may invoke",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Commands()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Commands)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Commands) == 0 {
					fmt.Fprintln(stdout, "No commands registered")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Command", "Parameters"},
					commandRows(resp.Commands),
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func taskRows(tasks []ipc.TaskInfo, now time.Time) [][]string {
	title := cases.Title(language.Und)
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		age := "-"
		if !task.Started.IsZero() {
			age = now.Sub(task.Started).Truncate(time.Second).String()
		}
		rows = append(rows, []string{task.Name, title.String(task.State), yesNo(task.Exempt), age})
	}
	return rows
}

func commandRows(commands []ipc.CommandInfo) [][]string {
	rows := make([][]string, 0, len(commands))
	for _, command := range commands {
		params := make([]string, 0, len(command.Params))
		for name, typ := range command.Params {
			params = append(params, fmt.Sprintf("%s: %s", name, typ))
		}
		sort.Strings(params)
		detail := strings.Join(params, ", ")
		if detail == "" {
			detail = "-"
		}
		rows = append(rows, []string{command.Name, detail})
	}
	return rows
}
