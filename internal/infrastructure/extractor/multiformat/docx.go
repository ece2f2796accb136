package multiformat

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/document-router/internal/core/ports"
)

const (
	docxBodyPart  = "word/document.xml"
	docxPropsPart = "docProps/app.xml"
)

var errMissingDocxBody = errors.New("docx archive has no word/document.xml")

func extractDOCX(data []byte) (ports.ExtractedText, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("open docx archive: %w", err)
	}

	var body, props *zip.File
	for _, f := range archive.File {
		switch f.Name {
		case docxBodyPart:
			body = f
		case docxPropsPart:
			props = f
		}
	}
	if body == nil {
		return ports.ExtractedText{}, errMissingDocxBody
	}

	text, breaks, err := readDocxBody(body)
	if err != nil {
		return ports.ExtractedText{}, err
	}
	pages := breaks + 1
	if props != nil {
		if n, err := readDocxPageCount(props); err == nil && n > 0 {
			pages = n
		}
	}
	return ports.ExtractedText{Text: text, PageCount: pages}, nil
}

// readDocxBody walks WordprocessingML runs; it returns the text and the number
// of explicit page breaks.
func readDocxBody(f *zip.File) (string, int, error) {
	rc, err := f.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	var (
		b      strings.Builder
		breaks int
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("decode docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					breaks++
				}
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), breaks, nil
}

func readDocxPageCount(f *zip.File) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	var props struct {
		Pages int `xml:"Pages"`
	}
	if err := xml.NewDecoder(rc).Decode(&props); err != nil {
		return 0, err
	}
	return props.Pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
