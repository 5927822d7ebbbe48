package zonal

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var exportHeader = []string{"basin", "variable", "group", "year", "area", "catch_color"}

// WriteCSV writes the table with a header line.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "zonal: write csv header")
	}
	for _, r := range t.Rows {
		rec := []string{
			r.Basin,
			strconv.Itoa(r.Variable),
			r.Group,
			strconv.Itoa(r.Year),
			strconv.FormatFloat(r.Area, 'f', 4, 64),
			r.CatchColor,
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "zonal: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "zonal: flush csv")
}

// WriteXLSX writes a workbook with the statistics rows on one sheet and the
// per-class totals on a second.
func WriteXLSX(w io.Writer, t *Table, groups []GroupArea) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("statistics")
	if err != nil {
		return eris.Wrap(err, "zonal: add statistics sheet")
	}
	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Basin)
		row.AddCell().SetInt(r.Variable)
		row.AddCell().SetString(r.Group)
		row.AddCell().SetInt(r.Year)
		row.AddCell().SetFloatWithFormat(r.Area, "0.00")
		row.AddCell().SetString(r.CatchColor)
	}

	summary, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "zonal: add summary sheet")
	}
	sh := summary.AddRow()
	sh.AddCell().SetString("group")
	sh.AddCell().SetString("area")
	for _, g := range groups {
		row := summary.AddRow()
		row.AddCell().SetString(g.Group)
		row.AddCell().SetFloatWithFormat(g.Area, "0.00")
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "zonal: write xlsx")
	}
	return nil
}
