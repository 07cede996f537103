package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/law-makers/reviewcrawl/pkg/models"
)

// CSVHeader is the first row written by WriteCSV
var CSVHeader = []string{"url", "status", "error", "id", "name", "date", "rating", "text"}

// WriteCSV flattens the batch response to one row per review. URLs are
// written in sorted order; a failed or empty URL still gets a single row.
func WriteCSV(w io.Writer, resp models.BatchResponse) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	urls := make([]string, 0, len(resp))
	for u := range resp {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		res := resp[u]
		if res.Status == models.StatusError || len(res.Reviews) == 0 {
			if err := writer.Write([]string{u, string(res.Status), res.Error, "", "", "", "", ""}); err != nil {
				return err
			}
			continue
		}
		for _, r := range res.Reviews {
			text := ""
			if r.Text != nil {
				text = *r.Text
			}
			row := []string{
				u,
				string(res.Status),
				"",
				r.ID,
				r.Name,
				r.Date,
				strconv.FormatFloat(r.Rating, 'f', -1, 64),
				text,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the batch response to filepath as CSV
func SaveCSV(resp models.BatchResponse, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath, err)
	}
	if err := WriteCSV(file, resp); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
