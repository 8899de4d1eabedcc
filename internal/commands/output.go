package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// money colors an amount by sign.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	switch {
	case d.IsNegative():
		return red(s)
	case d.IsPositive():
		return green(s)
	}
	return s
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
