package multiformat

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-router/internal/core/ports"
)

// extractXLSX emits every sheet as tab-separated rows; each sheet counts as a page.
func extractXLSX(data []byte) (ports.ExtractedText, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	var b strings.Builder
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return ports.ExtractedText{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Sheet: ")
		b.WriteString(sheet)
		b.WriteByte('\n')
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return ports.ExtractedText{Text: b.String(), PageCount: len(sheets)}, nil
}
