// Command memsql is an interactive/one-shot REPL over the embeddable SQL
// engine, grounded on Vegasq-parcat/main.go's flag-driven CLI shape
// (flag.String/-q query flag, stderr error reporting, os.Exit on failure)
// but reading its table data from CSV into an in-memory engine instead of
// querying a single Parquet file directly.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/vegasq/memsql/csvio"
	"github.com/vegasq/memsql/engine"
)

var (
	queryFlag = flag.String("q", "", "SQL statement to run and exit (omit for an interactive REPL)")
	loadFlag  = flag.String("load", "", "comma-separated table=path.csv pairs to load before running")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An embeddable in-memory analytical SQL engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -load orders=orders.csv -q \"SELECT * FROM orders\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -load orders=orders.csv\n", os.Args[0])
	}
	flag.Parse()

	eng := engine.New()

	if *loadFlag != "" {
		if err := loadTables(eng, *loadFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading tables: %v\n", err)
			os.Exit(1)
		}
	}

	if *queryFlag != "" {
		runOne(eng, *queryFlag)
		return
	}
	repl(eng)
}

func loadTables(eng *engine.Engine, spec string) error {
	for _, pair := range strings.Split(spec, ",") {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected table=path.csv, got %q", pair)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		schema, rows, err := csvio.ReadAll(f, csvio.Options{HasHeader: true, Delimiter: ',', Quote: '"'})
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		ds, err := eng.Catalog.CreateTable(name, schema, false)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := ds.AppendRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func runOne(eng *engine.Engine, sqlText string) {
	res, err := eng.Execute(sqlText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printResult(res)
}

func repl(eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "memsql> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(os.Stdout, "memsql> ")
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		res, err := eng.Execute(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			printResult(res)
		}
		fmt.Fprint(os.Stdout, "memsql> ")
	}
}

func printResult(res *engine.QueryResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(res.Columns())
	for i := 0; i < res.RowCount(); i++ {
		record := make([]string, res.ColumnCount())
		for c := 0; c < res.ColumnCount(); c++ {
			record[c] = res.Get(i, c).String()
		}
		table.Append(record)
	}
	table.Render()
}
