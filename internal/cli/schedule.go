package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/planner/internal/scheduler"
)

// now is replaced in tests to pin relative due dates.
var now = time.Now

func newScheduleCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedule [file|-]",
		Short: "Order the tasks of a schedule request",
		Long: `Read a schedule request ({"tasks": [...]}) from a file, or from stdin
when the file is "-" or omitted, and print the recommended order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			return runSchedule(cmd, source, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func runSchedule(cmd *cobra.Command, source string, asJSON bool) error {
	req, err := readRequest(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	resp, err := scheduler.GenerateSchedule(req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	_, err = fmt.Fprint(out, renderSchedule(req, resp, now()))
	return err
}

func readRequest(stdin io.Reader, source string) (scheduler.ScheduleRequest, error) {
	var req scheduler.ScheduleRequest

	r := stdin
	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return req, fmt.Errorf("opening request: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}
