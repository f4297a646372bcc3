package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fpang/memories-download/internal/cli"
	"github.com/fpang/memories-download/internal/filehandler"
	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/pipeline"
	"github.com/fpang/memories-download/internal/s3util"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable renders rows under headers with rounded borders.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: align})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render() + "\n"
}

// runSummary is everything printed once a run completes.
type runSummary struct {
	OutputDir string
	Photos    *pipeline.Result
	Videos    *pipeline.Result
	Mirror    *s3util.MirrorResult
	Failed    []manifest.Entry
}

func printSummary(w io.Writer, s runSummary) {
	var rows [][]string
	add := func(label string, r *pipeline.Result) {
		if r == nil {
			return
		}
		rows = append(rows, []string{
			label,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Written),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Stitched),
			cli.FormatElapsed(r.Elapsed),
		})
	}
	add("Photos", s.Photos)
	add("Videos", s.Videos)

	fmt.Fprintln(w)
	if len(rows) > 0 {
		fmt.Fprint(w, renderTable(
			[]string{"Batch", "Listed", "Saved", "Failed", "Combined", "Time"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	}

	if s.Mirror != nil {
		fmt.Fprintf(w, "Mirrored to S3: %d uploaded, %d already present, %d failed\n",
			s.Mirror.Uploaded, s.Mirror.Skipped, len(s.Mirror.Failed))
	}

	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "\n%d memories could not be downloaded:\n", len(s.Failed))
		fmt.Fprint(w, renderFailedTable(s.Failed))
		fmt.Fprintln(w, "Run the download again later to retry them.")
	}

	fmt.Fprintf(w, "\nYour memories have been downloaded at:\n  %s\n", s.OutputDir)
}

func renderFailedTable(failed []manifest.Entry) string {
	rows := make([][]string, 0, len(failed))
	for i, e := range failed {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.String()})
	}
	return renderTable([]string{"#", "Memory"}, rows, []columnAlignment{alignRight, alignLeft})
}

func renderToolTable(statuses []filehandler.ToolStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		status, detail := "found", s.Path
		if !s.Available() {
			status = "missing"
			detail = strings.TrimPrefix(s.Err.Error(), filehandler.ErrToolMissing.Error()+": ")
		}
		rows = append(rows, []string{s.Name, status, detail})
	}
	return renderTable([]string{"Tool", "Status", "Detail"}, rows, nil)
}
