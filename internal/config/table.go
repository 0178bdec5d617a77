package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var tableHeader = []string{"reg_name", "bitwidth", "initial_value", "cons_min", "cons_max"}

// WriteRegisterTable writes the registers as CSV, one row per register in
// name order. Sweep values are space-separated in the initial_value column.
func (c *Config) WriteRegisterTable(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, name := range c.RegisterNames() {
		r := c.Registers[name]
		values := strings.Join(lo.Map(r.Values, func(v, _ int) string { return strconv.Itoa(v) }), " ")
		row := []string{name, strconv.Itoa(r.BitWidth), values, strconv.Itoa(r.Min), strconv.Itoa(r.Max)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRegisterTable parses a table written by WriteRegisterTable.
func ReadRegisterTable(r io.Reader) (map[string]Register, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(tableHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("config: register table header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(tableHeader, ",") {
		return nil, fmt.Errorf("config: register table header %q, want %q", header, tableHeader)
	}

	regs := map[string]Register{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return regs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("config: register table: %w", err)
		}
		reg, err := parseRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("config: register table line %d: %w", line, err)
		}
		regs[row[0]] = reg
	}
}

func parseRow(row []string) (Register, error) {
	var reg Register
	var err error
	if reg.BitWidth, err = strconv.Atoi(row[1]); err != nil {
		return reg, err
	}
	for _, f := range strings.Fields(row[2]) {
		v, err := strconv.Atoi(f)
		if err != nil {
			return reg, err
		}
		reg.Values = append(reg.Values, v)
	}
	if reg.Min, err = strconv.Atoi(row[3]); err != nil {
		return reg, err
	}
	if reg.Max, err = strconv.Atoi(row[4]); err != nil {
		return reg, err
	}
	return reg, nil
}

// MergeRegisters overrides or adds registers from regs.
func (c *Config) MergeRegisters(regs map[string]Register) {
	if c.Registers == nil {
		c.Registers = map[string]Register{}
	}
	for name, r := range regs {
		c.Registers[name] = r
	}
}
