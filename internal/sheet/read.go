package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textEncoding is one attempt at decoding delimited text.
type textEncoding struct {
	name     string
	decoder  func() *encoding.Decoder
	validate func([]byte) error
}

// csvEncodings are tried in order: UTF-8 (optional BOM) first, then GBK which
// is what Excel on a Chinese locale writes when saving as CSV.
var csvEncodings = []textEncoding{
	{
		name:    "utf-8-sig",
		decoder: unicode.UTF8BOM.NewDecoder,
		validate: func(b []byte) error {
			if !utf8.Valid(b) {
				return errors.New("invalid utf-8 byte sequence")
			}
			return nil
		},
	},
	{
		name:    "gbk",
		decoder: simplifiedchinese.GBK.NewDecoder,
	},
}

// Read decodes an uploaded file into raw rows, choosing the reader by extension.
func Read(src Source) (Raw, error) {
	ext := strings.ToLower(filepath.Ext(src.Name))
	switch ext {
	case ".csv":
		return readCSV(src)
	case ".xlsx", ".xlsm":
		return readXLSX(src)
	case ".xls":
		return readXLS(src)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, src.Name)
	}
}

func readCSV(src Source) (Raw, error) {
	names := make([]string, 0, len(csvEncodings))
	var lastErr error

	for _, enc := range csvEncodings {
		names = append(names, enc.name)

		if enc.validate != nil {
			if err := enc.validate(src.Data); err != nil {
				lastErr = err
				continue
			}
		}

		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(src.Data), enc.decoder()))
		if err != nil {
			lastErr = err
			continue
		}
		if bytes.ContainsRune(decoded, utf8.RuneError) && !bytes.ContainsRune(src.Data, utf8.RuneError) {
			lastErr = fmt.Errorf("%s produced replacement characters", enc.name)
			continue
		}

		rows, err := parseCSV(decoded)
		if err != nil {
			lastErr = err
			continue
		}
		return rows, nil
	}

	return nil, &domain.DecodeFailureError{Name: src.Name, Encodings: names, Err: lastErr}
}

func parseCSV(data []byte) (Raw, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

var errNoSheets = errors.New("workbook has no sheets")

// readXLSX reads the first sheet with raw cell values so numeric formats
// such as thousands separators do not leak into quantities.
func readXLSX(src Source) (Raw, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src.Data))
	if err != nil {
		return nil, &domain.UnreadableFileError{Name: src.Name, Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.UnreadableFileError{Name: src.Name, Format: "xlsx", Err: errNoSheets}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.UnreadableFileError{Name: src.Name, Format: "xlsx", Err: fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)}
	}
	return rows, nil
}

// readXLS reads legacy BIFF workbooks. The reader only opens files by path,
// so the upload is spooled to a temp file first.
func readXLS(src Source) (Raw, error) {
	tmpFile, err := os.CreateTemp("", "inventory-*.xls")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(src.Data); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to spool %s: %w", src.Name, err)
	}
	tmpFile.Close()

	book, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, &domain.UnreadableFileError{Name: src.Name, Format: "xls", Err: err}
	}

	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, &domain.UnreadableFileError{Name: src.Name, Format: "xls", Err: errNoSheets}
	}

	var rows Raw
	for _, xlsRow := range sheet.GetRows() {
		cols := xlsRow.GetCols()
		record := make([]string, 0, len(cols))
		for _, col := range cols {
			record = append(record, col.GetString())
		}
		rows = append(rows, record)
	}
	return rows, nil
}
