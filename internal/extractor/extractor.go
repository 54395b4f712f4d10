// Package extractor turns uploaded file bytes into plain text. The output
// is a single flattened stream; page and sheet boundaries are not preserved.
package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docuchat/internal/apperr"
)

// Extract converts the raw bytes of an uploaded file into plain text based
// on its filename extension. An unreadable or unsupported file is an
// ExtractionError; a readable file with no text yields an empty string,
// which callers treat as "0 chunks ingested", not a failure.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".pptx":
		text, err = extractPPTX(data)
	case ".xlsx":
		text, err = extractXLSX(data)
	case ".ods":
		text, err = extractODS(data)
	case ".md", ".markdown":
		text, err = extractMarkdown(data)
	case ".txt":
		text = string(data)
	default:
		return "", &apperr.ExtractionError{Filename: filename, Err: fmt.Errorf("unsupported file format: %s", ext)}
	}
	if err != nil {
		return "", &apperr.ExtractionError{Filename: filename, Err: err}
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return extractTextFromXML(content, "w:t"), nil
}

func extractPPTX(data []byte) (string, error) {
	f, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		slide := new(bytes.Buffer)
		_, err = slide.ReadFrom(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text.WriteString(extractTextFromXML(slide.String(), "a:t"))
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func extractODS(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}
	stripped := htmlTagRe.ReplaceAllString(buf.String(), "")
	return html.UnescapeString(stripped), nil
}

// extractTextFromXML pulls the text runs out of Office XML, e.g. every
// <w:t> element of a DOCX body or <a:t> of a PPTX slide.
func extractTextFromXML(xmlContent, tag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<"+tag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		open := strings.Index(part, ">")
		if open < 0 {
			continue
		}
		rest := part[open+1:]
		end := strings.Index(rest, "</"+tag+">")
		if end >= 0 {
			text.WriteString(html.UnescapeString(rest[:end]) + " ")
		}
	}
	return text.String()
}
