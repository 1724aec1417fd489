// wordstoexcel converts a word-capture file (.bin of raw 32-bit words or
// .csv of timestamp,ones rows) into an Excel workbook with a running
// z-score chart of the ones count per word.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName      = "Zscore"
	onesColumnName = "ones"
	wordColumnName = "words"
	timeColumnName = "time"
	wordBits       = 32
)

// DataRow is one captured word with its ones count and computed cumulative
// mean and z-score.
type DataRow struct {
	Category       string
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// findInterval extracts the sampling interval in seconds from the file
// path. It looks for a segment matching `_i(\d+)` and returns the number.
func findInterval(filePath string) (int, error) {
	re := regexp.MustCompile(`_i(\d+)`)
	m := re.FindStringSubmatch(filePath)
	if len(m) < 2 {
		return 0, fmt.Errorf("interval not found in file name: %s", filepath.Base(filePath))
	}
	return strconv.Atoi(m[1])
}

// findWordCount extracts the number of captured words from the file path,
// matching the `_w(\d+)_i` segment of the naming convention.
func findWordCount(filePath string) (int, error) {
	re := regexp.MustCompile(`_w(\d+)_i`)
	m := re.FindStringSubmatch(filePath)
	if len(m) < 2 {
		return 0, fmt.Errorf("word count not found in file name: %s", filepath.Base(filePath))
	}
	return strconv.Atoi(m[1])
}

// readBinFile reads raw little-endian 32-bit words and returns rows of
// (word number label, ones count). A trailing partial word is ignored.
func readBinFile(filePath string) ([]DataRow, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	rows := make([]DataRow, 0, 1024)
	var raw [4]byte
	for n := 1; ; n++ {
		if _, err := io.ReadFull(reader, raw[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		w := binary.LittleEndian.Uint32(raw[:])
		rows = append(rows, DataRow{Category: strconv.Itoa(n), Ones: bits.OnesCount32(w)})
	}
	return rows, nil
}

// readCSVFile reads a .csv capture with two columns: timestamp and ones
// count, labelling rows with the timestamp formatted as HH:MM:SS.
func readCSVFile(filePath string) ([]DataRow, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]DataRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		label := formatTimeLabel(strings.TrimSpace(rec[0]))
		onesStr := strings.TrimSpace(rec[1])
		ones, err := strconv.Atoi(onesStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ones value '%s': %w", onesStr, err)
		}
		rows = append(rows, DataRow{Category: label, Ones: ones})
	}
	return rows, nil
}

// formatTimeLabel attempts to parse common timestamp formats and returns
// HH:MM:SS. If parsing fails, it returns the original string.
func formatTimeLabel(s string) string {
	formats := []string{
		time.RFC3339,
		"20060102T15:04:05",
		"2006-01-02 15:04:05",
		"15:04:05",
		"15:04",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}

// calculateZTest computes the cumulative mean of ones per word and the
// z-score per row. For fair 32-bit words:
// expected_mean = 16, expected_std_dev = sqrt(32 * 0.25)
// z_i = (cum_mean_i - expected_mean) / (expected_std_dev / sqrt(i+1))
func calculateZTest(rows []DataRow) []DataRow {
	expectedMean := 0.5 * wordBits
	expectedStdDev := math.Sqrt(wordBits * 0.25)
	sum := 0
	for i := range rows {
		sum += rows[i].Ones
		cumMean := float64(sum) / float64(i+1)
		z := (cumMean - expectedMean) / (expectedStdDev / math.Sqrt(float64(i+1)))
		rows[i].CumulativeMean = cumMean
		rows[i].ZScore = z
	}
	return rows
}

// writeToExcel writes the rows to an Excel file with a line chart of the
// z-score. The file is written next to the input path with a .xlsx
// extension.
func writeToExcel(rows []DataRow, filePath string, intervalSec int, firstColumnHeader string) error {
	if len(rows) == 0 {
		return errors.New("no data to write")
	}
	fileToSave := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + ".xlsx"
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheetName {
		f.NewSheet(sheetName)
		f.DeleteSheet(defaultSheet)
	}

	_ = f.SetCellStr(sheetName, "A1", firstColumnHeader)
	_ = f.SetCellStr(sheetName, "B1", onesColumnName)
	_ = f.SetCellStr(sheetName, "C1", "cumulative_mean")
	_ = f.SetCellStr(sheetName, "D1", "z_test")

	for i, r := range rows {
		rowIdx := i + 2
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowIdx), r.Category)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", rowIdx), r.Ones)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("C%d", rowIdx), r.CumulativeMean, 6, 64)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("D%d", rowIdx), r.ZScore, 6, 64)
	}

	endRow := len(rows) + 1
	catRange := fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow)
	valRange := fmt.Sprintf("%s!$D$2:$D$%d", sheetName, endRow)
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$D$1", sheetName),
				Categories: catRange,
				Values:     valRange,
			},
		},
		Title:  []excelize.RichTextRun{{Text: filepath.Base(filePath)}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Number of words - one word every %d second(s)", intervalSec)}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - %d bits per word", wordBits)}}, MajorGridLines: true},
	}
	if err := f.AddChart(sheetName, "F2", chart); err != nil {
		return err
	}

	return f.SaveAs(fileToSave)
}

// run performs the end-to-end workflow: parse inputs, read data, compute,
// and export.
func run(filePath string) error {
	interval, err := findInterval(filePath)
	if err != nil {
		return err
	}
	if _, err := findWordCount(filePath); err != nil {
		return err
	}

	var rows []DataRow
	firstHeader := wordColumnName
	if strings.HasSuffix(strings.ToLower(filePath), ".bin") {
		rows, err = readBinFile(filePath)
		firstHeader = wordColumnName
	} else if strings.HasSuffix(strings.ToLower(filePath), ".csv") {
		rows, err = readCSVFile(filePath)
		firstHeader = timeColumnName
	} else {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}
	if err != nil {
		return err
	}

	rows = calculateZTest(rows)
	return writeToExcel(rows, filePath, interval, firstHeader)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: wordstoexcel <path-to-.bin-or-.csv>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
