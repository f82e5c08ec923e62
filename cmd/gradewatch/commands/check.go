package commands

import (
	"os"
	"sort"
	"time"

	"gradewatch/lib/restyutil"
	"gradewatch/lib/scrapers/courseware"
	"gradewatch/lib/serviceutil"
	"gradewatch/lib/snapshotstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var checkDump *bool
var checkStudent *string

func init() {
	checkDump = checkCmd.Flags().Bool("dump", false, "Write raw http requests and responses to ./http_dump.")
	checkStudent = checkCmd.Flags().String("student", "", "Only show the row of this student id.")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetches the results page once and prints the evaluation table.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		var output restyutil.InstrumentOutput
		if *checkDump {
			output = restyutil.NewFilesystemOutput("http_dump")
		}

		client, err := courseware.NewClient(courseware.Options{
			ResultsUrl: cfg.Portal.ResultsUrl,
			Username:   cfg.Credentials.Username,
			Password:   cfg.Credentials.Password,
			CookieFile: cfg.Portal.CookieFile,
			Output:     output,
		})
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}

		ctx, cancel := cmdContext(cmd, time.Second*60)
		defer cancel()

		var ids []string
		results := map[string]snapshotstore.Snapshot{}
		if *checkStudent != "" {
			snapshot, err := client.Fetch(ctx, *checkStudent)
			if err != nil {
				serviceutil.Fatal("failed to fetch student", err)
			}
			ids = []string{*checkStudent}
			results[*checkStudent] = snapshot
		} else {
			results, err = client.FetchResults(ctx)
			if err != nil {
				serviceutil.Fatal("failed to fetch results page", err)
			}
			for id := range results {
				ids = append(ids, id)
			}
			sort.Strings(ids)
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"STUDENT", "TUTOR", "SP", "TOTAL", "RESULT"})
		for _, id := range ids {
			fields := results[id].Fields
			t.AppendRow(table.Row{
				id,
				fields[courseware.FieldTutor],
				fields[courseware.FieldSpPoints],
				fields[courseware.FieldTotalPoints],
				fields[courseware.FieldResult],
			})
		}
		t.Render()
	},
}
