package dataset

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/ports"

	"github.com/go-gota/gota/dataframe"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx"
)

// FileRepository implements DeliveryRepository over a local .csv or .xlsx file.
type FileRepository struct {
	Path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{Path: path}
}

func (f *FileRepository) Source() string { return "file:" + f.Path }

// Read and parse the whole file. The file is read once; nothing is streamed.
func (f *FileRepository) ListDeliveries(ctx context.Context) (_ ports.LoadResult, err error) {
	defer obs.Time(ctx, "dataset.file.ListDeliveries")(&err)

	if err := ctx.Err(); err != nil {
		return ports.LoadResult{}, err
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv":
		records, err = readCSV(f.Path)
	case ".xlsx":
		records, err = readXLSX(f.Path)
	default:
		return ports.LoadResult{}, eris.Errorf("dataset: unsupported file type %q", f.Path)
	}
	if err != nil {
		return ports.LoadResult{}, err
	}

	return fromRecords(records, f.Path)
}

// fromRecords checks the header row before handing the records to gota.
// A file with a header and no data rows is an empty dataset, not an error.
func fromRecords(records [][]string, path string) (ports.LoadResult, error) {
	if len(records) == 0 {
		return ports.LoadResult{}, eris.Errorf("dataset: %q has no header row", path)
	}
	if missing := MissingColumns(records[0]); len(missing) > 0 {
		return ports.LoadResult{}, eris.Errorf("dataset: missing required columns: %s", strings.Join(missing, ", "))
	}
	if len(records) == 1 {
		return ports.LoadResult{Rows: []domain.Delivery{}}, nil
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return ports.LoadResult{}, eris.Wrapf(df.Err, "dataset: parse %q", path)
	}
	return FromFrame(df)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %q", path)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: parse csv %q", path)
	}
	return records, nil
}

// readXLSX treats the first row of the first sheet as the header.
func readXLSX(path string) ([][]string, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %q", path)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, eris.Errorf("dataset: %q has no sheets", path)
	}

	sheet := xlFile.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("dataset: sheet %q is empty", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)
	for _, row := range sheet.Rows[1:] {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		rec := make([]string, len(headers))
		for i, cell := range row.Cells {
			if i < len(headers) {
				rec[i] = cell.String()
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
