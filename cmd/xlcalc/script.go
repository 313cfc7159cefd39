package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/javajack/xlcalc"
)

// script applies line commands to a spreadsheet:
//
//	A1 = 5              assign raw input (everything after "= ")
//	insert row 2        insert/delete row or col at a 0-based index
//	bold A1             toggle bold, italic or underline
//	clear A1
//	sheet new 20x5      add a sheet, optionally sized
//	sheet use 1         switch the current sheet
//	sheet delete 0
//	title Budget        rename the current sheet
//
// Blank lines and lines starting with '#' are skipped.
type script struct {
	ss      *xlcalc.Spreadsheet
	current *xlcalc.Sheet
}

func newScript(ss *xlcalc.Spreadsheet) (*script, error) {
	sheet, err := ss.Sheet(0)
	if err != nil {
		return nil, err
	}
	return &script{ss: ss, current: sheet}, nil
}

func (sc *script) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if err := sc.exec(trimmed); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func (sc *script) exec(line string) error {
	if name, raw, ok := assignment(line); ok {
		pos, err := xlcalc.ParsePosition(name)
		if err != nil {
			return err
		}
		return sc.current.SetCellValue(pos, raw)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "insert", "delete":
		if len(fields) != 3 {
			return fmt.Errorf("usage: %s row|col INDEX", fields[0])
		}
		isRow, err := axis(fields[1])
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid index %q", fields[2])
		}
		if fields[0] == "insert" {
			return sc.current.Insert(isRow, id)
		}
		return sc.current.Delete(isRow, id)
	case "bold", "italic", "underline", "clear":
		if len(fields) != 2 {
			return fmt.Errorf("usage: %s CELL", fields[0])
		}
		pos, err := xlcalc.ParsePosition(fields[1])
		if err != nil {
			return err
		}
		cell := sc.current.GetCell(pos.Row, pos.Col)
		if cell.ID() < 0 {
			return fmt.Errorf("%s: %w", pos, xlcalc.ErrPositionOutOfRange)
		}
		switch fields[0] {
		case "bold":
			cell.SetBold(!cell.Bold())
		case "italic":
			cell.SetItalic(!cell.Italic())
		case "underline":
			cell.SetUnderline(!cell.Underline())
		case "clear":
			cell.Clear()
		}
		return nil
	case "sheet":
		return sc.sheet(fields[1:])
	case "title":
		sc.current.SetTitle(strings.TrimSpace(strings.TrimPrefix(line, "title")))
		return nil
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

func (sc *script) sheet(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sheet new|use|delete")
	}
	switch args[0] {
	case "new":
		var opts []xlcalc.Option
		if len(args) > 1 {
			rows, cols, err := parseSize(args[1])
			if err != nil {
				return err
			}
			opts = append(opts, xlcalc.WithSize(rows, cols))
		}
		sheet, err := sc.ss.CreateSheet(opts...)
		if err != nil {
			return err
		}
		sc.current = sheet
		return nil
	case "use", "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: sheet %s INDEX", args[0])
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid sheet index %q", args[1])
		}
		if args[0] == "delete" {
			if err := sc.ss.DeleteSheet(id); err != nil {
				return err
			}
			id = 0
		}
		sheet, err := sc.ss.Sheet(id)
		if err != nil {
			return err
		}
		sc.current = sheet
		return nil
	}
	return fmt.Errorf("unknown sheet command %q", args[0])
}

// assignment splits "A1 = raw". One space after '=' is part of the syntax.
func assignment(line string) (name, raw string, ok bool) {
	left, right, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(left)
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	if _, err := xlcalc.ParsePosition(name); err != nil {
		return "", "", false
	}
	return name, strings.TrimPrefix(right, " "), true
}

func axis(s string) (bool, error) {
	switch s {
	case "row":
		return true, nil
	case "col", "column":
		return false, nil
	}
	return false, fmt.Errorf("expected row or col, got %q", s)
}

// parseSize parses "ROWSxCOLS".
func parseSize(s string) (int, int, error) {
	r, c, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want ROWSxCOLS)", s)
	}
	rows, err1 := strconv.Atoi(r)
	cols, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid size %q (want ROWSxCOLS)", s)
	}
	return rows, cols, nil
}
