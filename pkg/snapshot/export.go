package snapshot

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes rows with a header line in the stored column order.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ColumnNames()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(EncodeRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
