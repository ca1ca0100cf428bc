package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"delivery-analytics-service/internal/domain"

	"github.com/go-gota/gota/dataframe"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Deliveries"

func exportRecord(d domain.Delivery) []any {
	return []any{
		d.OrderID, d.AgentAge, d.AgentRating,
		d.StoreLat, d.StoreLon, d.DropLat, d.DropLon,
		d.Area, d.Vehicle, d.Weather, d.Traffic, d.Category,
		d.Distance, d.DeliveryTime, d.OrderTime,
	}
}

// WriteCSV writes rows with the dataset column header.
func WriteCSV(w io.Writer, rows []domain.Delivery) error {
	if len(rows) == 0 {
		// The frame loader refuses an empty slice; emit the header alone.
		cw := csv.NewWriter(w)
		if err := cw.Write(domain.RequiredColumns); err != nil {
			return eris.Wrap(err, "export csv: header")
		}
		cw.Flush()
		return eris.Wrap(cw.Error(), "export csv: flush")
	}
	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return eris.Wrap(df.Err, "export csv: build frame")
	}
	if err := df.WriteCSV(w); err != nil {
		return eris.Wrap(err, "export csv")
	}
	return nil
}

// WriteXLSX writes rows as a single sheet workbook.
func WriteXLSX(w io.Writer, rows []domain.Delivery) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return eris.Wrap(err, "export xlsx: rename sheet")
	}

	header := make([]any, len(domain.RequiredColumns))
	for i, c := range domain.RequiredColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return eris.Wrap(err, "export xlsx: header")
	}
	for i, d := range rows {
		rec := exportRecord(d)
		if err := f.SetSheetRow(exportSheet, "A"+strconv.Itoa(i+2), &rec); err != nil {
			return eris.Wrapf(err, "export xlsx: row %d", i+2)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export xlsx: write")
	}
	return nil
}
