// Package main provides the xlcalc command line tool.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/javajack/xlcalc"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	outputPath string
	xlsxPath   string
	formulas   bool
	encoding   string
	size       string
	oneHop     bool
	sheetIndex int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "xlcalc",
		Short:        "Evaluate reactive spreadsheet scripts",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&size, "size", "10x10", "Size of new sheets (ROWSxCOLS)")
	rootCmd.PersistentFlags().BoolVar(&oneHop, "one-hop", false, "Only reject self and one-hop circular references")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "utf-8", "CSV output encoding, e.g. windows-1252")

	runCmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a script and print the display grid of every sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the current sheet as CSV to this file")
	runCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the spreadsheet as XLSX to this file")
	runCmd.Flags().BoolVar(&formulas, "formulas", false, "Include Excel formulas in XLSX output")

	describeCmd := &cobra.Command{
		Use:   "describe SCRIPT",
		Short: "Run a script and list every cell with its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE:  describeScript,
	}

	checkCmd := &cobra.Command{
		Use:   "check SCRIPT",
		Short: "Run a script and report cells with error displays",
		Args:  cobra.ExactArgs(1),
		RunE:  checkScript,
	}

	convertCmd := &cobra.Command{
		Use:   "convert INPUT.xlsx",
		Short: "Import an XLSX workbook and print one sheet as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  convertWorkbook,
	}
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	convertCmd.Flags().IntVar(&sheetIndex, "sheet", 0, "0-based index of the sheet to export")

	rootCmd.AddCommand(runCmd, describeCmd, checkCmd, convertCmd)
	return rootCmd
}

func engineOptions() ([]xlcalc.Option, error) {
	rows, cols, err := parseSize(size)
	if err != nil {
		return nil, err
	}
	enc, err := xlcalc.LookupEncoding(encoding)
	if err != nil {
		return nil, err
	}
	opts := []xlcalc.Option{
		xlcalc.WithSize(rows, cols),
		xlcalc.WithCSVEncoding(enc),
		xlcalc.WithXLSXFormulas(formulas),
	}
	if oneHop {
		opts = append(opts, xlcalc.WithCycleCheck(xlcalc.CycleCheckOneHop))
	}
	if verbose {
		opts = append(opts, xlcalc.WithLogger(log.New(os.Stderr, "xlcalc: ", 0)))
	}
	return opts, nil
}

// load runs the script at path against a fresh spreadsheet.
func load(path string) (*script, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, err
	}
	ss, err := xlcalc.New(opts...)
	if err != nil {
		return nil, err
	}
	sc, err := newScript(ss)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	if err := sc.run(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, sheet := range sc.ss.Sheets() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := printGrid(out, sheet); err != nil {
			return err
		}
	}

	if outputPath != "" {
		data, err := exportCurrent(sc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return fmt.Errorf("create xlsx: %w", err)
		}
		if err := writeAndClose(f, sc.ss.WriteXLSX); err != nil {
			return fmt.Errorf("write xlsx %s: %w", xlsxPath, err)
		}
	}
	return nil
}

// writeAndClose runs write against w and closes it. A close failure is
// reported when the write itself succeeded.
func writeAndClose(w io.WriteCloser, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportCurrent(sc *script) ([]byte, error) {
	for i, sheet := range sc.ss.Sheets() {
		if sheet == sc.current {
			return sc.ss.ExportSheet(i)
		}
	}
	return sc.ss.ExportSheet(0)
}

func describeScript(cmd *cobra.Command, args []string) error {
	sc, err := load(args[0])
	if err != nil {
		return err
	}
	for _, sheet := range sc.ss.Sheets() {
		fmt.Fprint(cmd.OutOrStdout(), sheet.Describe())
	}
	return nil
}

func checkScript(cmd *cobra.Command, args []string) error {
	sc, err := load(args[0])
	if err != nil {
		return err
	}
	errs := 0
	for _, sheet := range sc.ss.Sheets() {
		for _, issue := range sheet.Validate() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sheet.Title(), issue)
			if issue.Severity == xlcalc.SeverityError {
				errs++
			}
		}
	}
	if errs > 0 {
		return fmt.Errorf("%d cell(s) evaluate to errors", errs)
	}
	return nil
}

func convertWorkbook(cmd *cobra.Command, args []string) error {
	opts, err := engineOptions()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("file not found: %s", args[0])
	}
	defer f.Close()

	ss, err := xlcalc.ImportXLSX(f, opts...)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	data, err := ss.ExportSheet(sheetIndex)
	if err != nil {
		return err
	}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// printGrid writes the displays of a sheet as an aligned table with
// column letters and 1-based row numbers.
func printGrid(w io.Writer, sheet *xlcalc.Sheet) error {
	fmt.Fprintf(w, "[%s]\n", sheet.Title())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, cols := sheet.Size()
	header := make([]string, cols+1)
	for c := 0; c < cols; c++ {
		header[c+1] = xlcalc.ColToName(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for r, row := range sheet.GetCellGrid() {
		fields := make([]string, len(row)+1)
		fields[0] = fmt.Sprint(r + 1)
		for c, cell := range row {
			fields[c+1] = cell.Display()
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}
	return tw.Flush()
}
