// Command demo is a minimal interactive shell over a brindle database
// file, grounded on the teacher's cmd/tinysql REPL (flag parsing,
// `;`-buffered input loop, meta-commands, tabwriter column output),
// trimmed to this engine's grammar: no tenants, no JOIN/JSON/CSV output
// modes, since none of that exists in §6.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/brindledb/brindle"
	"github.com/brindledb/brindle/internal/engine"
	"github.com/brindledb/brindle/internal/pager"
	"github.com/dustin/go-humanize"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: demo [OPTIONS] FILENAME [SQL]\n")
		fs.PrintDefaults()
	}
	cmd := fs.String("cmd", "", "Run this SQL statement (or script) and exit")
	headers := fs.Bool("header", true, "Include column headers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("demo: missing FILENAME")
	}
	path := fs.Arg(0)

	h, err := brindle.OpenDatabase(path, 0, pager.CacheConfig{})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer h.ReleaseDatabase()

	if *cmd != "" {
		return execute(h, *cmd, *headers, os.Stdout)
	}
	if fs.NArg() >= 2 {
		return execute(h, fs.Arg(1), *headers, os.Stdout)
	}

	repl := &Repl{handle: h, path: path, headers: *headers, out: os.Stdout}
	return repl.Run()
}

// Repl is the interactive `;`-buffered statement loop.
type Repl struct {
	handle  *brindle.Handle
	path    string
	headers bool
	out     io.Writer
	buf     strings.Builder
}

func (r *Repl) Run() error {
	fmt.Fprintln(r.out, "brindle demo shell")
	fmt.Fprintln(r.out, `Enter ".help" for usage hints.`)
	fmt.Fprintf(r.out, "Connected to: %s\n", r.path)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			if r.buf.Len() > 0 {
				fmt.Fprintln(r.out, "^C")
				r.buf.Reset()
				r.printPrompt()
			} else {
				r.handle.ReleaseDatabase()
				os.Exit(0)
			}
		}
	}()

	r.printPrompt()
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if r.buf.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if err := r.handleMeta(trimmed); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			r.printPrompt()
			continue
		}

		r.buf.WriteString(line)
		r.buf.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			sqlText := r.buf.String()
			r.buf.Reset()
			if err := execute(r.handle, sqlText, r.headers, r.out); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		r.printPrompt()
	}
	return scanner.Err()
}

func (r *Repl) printPrompt() {
	if r.buf.Len() == 0 {
		fmt.Fprint(r.out, "brindle> ")
	} else {
		fmt.Fprint(r.out, "    ...> ")
	}
}

func (r *Repl) handleMeta(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".help":
		printHelp(r.out)
	case ".quit", ".exit":
		r.handle.ReleaseDatabase()
		os.Exit(0)
	case ".tables":
		return printTables(r.out, r.handle)
	case ".schema":
		target := ""
		if len(fields) > 1 {
			target = fields[1]
		}
		return printSchema(r.out, r.handle, target)
	case ".stats":
		return printStats(r.out, r.path)
	case ".read":
		if len(fields) < 2 {
			return fmt.Errorf("usage: .read FILE")
		}
		data, err := os.ReadFile(fields[1])
		if err != nil {
			return err
		}
		return execute(r.handle, string(data), r.headers, r.out)
	default:
		return fmt.Errorf("unknown command: %s", fields[0])
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
.exit                  Exit this program
.help                  Show this message
.read FILENAME         Execute the SQL script in FILENAME
.schema ?TABLE?         Show the CREATE TABLE statement(s)
.stats                  Show the database file size
.tables                 List table names`)
}

// execute runs every `;`-terminated statement in sqlText, printing a
// SELECT's rows as a tabwriter-aligned table and every other statement's
// affected-row count.
func execute(h *brindle.Handle, sqlText string, headers bool, out io.Writer) error {
	for _, stmt := range engine.SplitStatements(sqlText) {
		if strings.HasPrefix(strings.TrimSpace(stmt), "SELECT") {
			res, err := h.Query(stmt)
			if err != nil {
				return err
			}
			if err := printResult(out, res, headers); err != nil {
				return err
			}
			continue
		}
		n, err := h.Exec(stmt)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "(%d rows affected)\n", n)
	}
	return nil
}

func printResult(out io.Writer, res *brindle.Result, headers bool) error {
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	names := res.Schema().Names()
	if headers {
		fmt.Fprintln(w, strings.Join(names, "\t"))
	}
	for {
		ok, err := res.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row, err := res.Row()
		if err != nil {
			return err
		}
		fields := make([]string, len(names))
		for i := range names {
			fields[i] = row.Field(i).String()
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}
	return w.Flush()
}

// printTables lists user tables via Handle.TableNames rather than a
// SELECT against master_table, which ordinary SQL access can never reach
// (§6 "references to the master table forbidden except from the
// privileged bootstrap path").
func printTables(out io.Writer, h *brindle.Handle) error {
	names, err := h.TableNames()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func printSchema(out io.Writer, h *brindle.Handle, target string) error {
	names, err := h.TableNames()
	if err != nil {
		return err
	}
	for _, n := range names {
		if target != "" && n != target {
			continue
		}
		sql, err := h.TableSQL(n)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, sql)
	}
	return nil
}

func printStats(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "file size: %s\n", humanize.Bytes(uint64(info.Size())))
	return nil
}
