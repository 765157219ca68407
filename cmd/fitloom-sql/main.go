// fitloom-sql is an interactive read-only SQL console over the Parquet
// snapshots. Table names expand to read_parquet calls, so
//
//	SELECT * FROM daily_summary WHERE date >= '2024-01-01';
//
// works without knowing the snapshot paths.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/tskov/fitloom/internal/config"
	"github.com/tskov/fitloom/internal/logging"
	"github.com/tskov/fitloom/internal/query"
	"github.com/tskov/fitloom/internal/snapshot"
	"github.com/tskov/fitloom/internal/tables"
)

// Version is set at build time via ldflags
var Version = "dev"

type console struct {
	svc *query.Service
	cfg *config.Config
	dir string
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	outputDir := flag.String("out", "", "snapshot directory (overrides config)")
	execute := flag.String("e", "", "execute one statement and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("fitloom-sql %s\n", Version)
		return
	}

	logging.InitAuto(slog.LevelWarn)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	svc, err := query.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open query service: %v\n", err)
		os.Exit(2)
	}
	defer svc.Close()

	c := &console{svc: svc, cfg: cfg, dir: cfg.OutputDir}

	if *execute != "" {
		c.run(*execute)
		return
	}

	fmt.Printf("fitloom-sql %s (snapshots: %s)\n", Version, cfg.OutputDir)
	fmt.Println(`Type ".tables" to list tables, ".rolling <column>" for window averages, ".quit" to exit.`)

	p := prompt.New(
		c.run,
		c.complete,
		prompt.OptionPrefix("fitloom> "),
		prompt.OptionTitle("fitloom-sql"),
	)
	p.Run()
}

// tablePattern matches bare table names so they can be rewritten into
// read_parquet calls. Word boundaries keep column names like
// total_steps intact.
var tablePattern = regexp.MustCompile(`\b(` + strings.Join(tables.All(), "|") + `)\b`)

func (c *console) run(input string) {
	input = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(input), ";"))
	if input == "" {
		return
	}

	switch input {
	case ".quit", ".exit", "quit", "exit":
		os.Exit(0)
	case ".tables":
		c.listTables()
		return
	}
	if strings.HasPrefix(input, ".rolling") {
		c.rolling(strings.Fields(input)[1:])
		return
	}

	rewritten := tablePattern.ReplaceAllStringFunc(input, func(name string) string {
		if !snapshot.Exists(c.dir, name) {
			return name
		}
		return fmt.Sprintf("read_parquet('%s')", snapshot.Path(c.dir, name))
	})

	rows, err := c.svc.ExecuteSQL(context.Background(), rewritten)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	printRows(rows)
}

func (c *console) listTables() {
	for _, t := range tables.All() {
		status := "missing"
		if snapshot.Exists(c.dir, t) {
			status = snapshot.Path(c.dir, t)
		}
		fmt.Printf("  %-24s %s\n", t, status)
	}
}

// rolling prints a daily_summary column alongside its short- and
// long-window trailing averages, windows per the configured rolling
// lengths. Usage: .rolling <column> [start end]
func (c *console) rolling(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: .rolling <column> [start end]")
		return
	}
	column := args[0]
	ctx := context.Background()

	var r query.DateRange
	if len(args) >= 3 {
		r = query.DateRange{Start: args[1], End: args[2]}
	} else {
		min, max, ok, err := c.svc.OverallDateRange(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		if !ok {
			fmt.Println("(no data)")
			return
		}
		r = query.DateRange{Start: min, End: max}
	}

	short, err := c.svc.RollingShort(ctx, column, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	long, err := c.svc.RollingLong(ctx, column, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	longByDate := make(map[string]*float64, len(long))
	for _, p := range long {
		longByDate[p.Date] = p.Avg
	}

	fmt.Printf("%-12s %12s %12s %12s\n", "date", column,
		fmt.Sprintf("avg_%dd", c.cfg.Rolling.ShortDays),
		fmt.Sprintf("avg_%dd", c.cfg.Rolling.LongDays))
	for _, p := range short {
		fmt.Printf("%-12s %12s %12s %12s\n", p.Date,
			formatFloatPtr(p.Value), formatFloatPtr(p.Avg), formatFloatPtr(longByDate[p.Date]))
	}
	fmt.Printf("(%d rows)\n", len(short))
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func (c *console) complete(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if word == "" {
		return nil
	}

	suggestions := []prompt.Suggest{
		{Text: "SELECT"}, {Text: "FROM"}, {Text: "WHERE"},
		{Text: "GROUP BY"}, {Text: "ORDER BY"}, {Text: "LIMIT"},
		{Text: ".tables"}, {Text: ".rolling"}, {Text: ".quit"},
	}
	for _, t := range tables.All() {
		suggestions = append(suggestions, prompt.Suggest{Text: t, Description: "snapshot table"})
	}
	return prompt.FilterHasPrefix(suggestions, word, true)
}

// printRows renders query results as an aligned text table.
func printRows(rows []map[string]interface{}) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	widths := make([]int, len(cols))
	cells := make([][]string, len(rows))
	for i, col := range cols {
		widths[i] = len(col)
	}
	for ri, row := range rows {
		cells[ri] = make([]string, len(cols))
		for ci, col := range cols {
			s := formatValue(row[col])
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	for i, col := range cols {
		fmt.Printf("%-*s  ", widths[i], col)
	}
	fmt.Println()
	for ri := range cells {
		for ci := range cols {
			fmt.Printf("%-*s  ", widths[ci], cells[ri][ci])
		}
		fmt.Println()
	}
	fmt.Printf("(%d rows)\n", len(rows))
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
