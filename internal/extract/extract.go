// Package extract pulls plain text out of uploaded documents.
// PDF parsing uses github.com/ledongthuc/pdf; DOCX is unpacked as a zip
// and stripped of its XML markup.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MimePDF is the content type accepted for PDF uploads.
	MimePDF = "application/pdf"
	// MimeDOCX is the content type accepted for DOCX uploads.
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	// MimeText is the content type accepted for plain-text uploads.
	MimeText = "text/plain"
)

// Supported reports whether the content type can be extracted.
func Supported(contentType string) bool {
	switch normalizeMimeType(contentType) {
	case MimePDF, MimeDOCX, MimeText:
		return true
	default:
		return false
	}
}

// Text extracts plain text from an in-memory payload.
func Text(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch normalizeMimeType(contentType) {
	case MimePDF:
		return extractPDF(data)
	case MimeDOCX:
		return extractDOCX(data)
	case MimeText:
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported mime type: %s", contentType)
	}
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}
