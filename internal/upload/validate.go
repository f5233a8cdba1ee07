package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPreview bounds the text kept from the first page of a PDF.
const MaxPreview = 280

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for _, msg := range e.Fields {
			return msg
		}
	}
	return "Validation error"
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// FileInfo describes a file that passed the local checks.
type FileInfo struct {
	Name    string
	Ext     string
	Size    int64
	Pages   int
	Preview string
}

// Inspect checks that path is an uploadable policy document. PDFs must open
// and have at least one page; images are sent as-is for OCR.
func Inspect(path string) (*FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fieldError("file", "Please select a file")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return nil, fieldError("file", fmt.Sprintf("unsupported file type %q (use PDF, PNG or JPG)", ext))
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fieldError("file", "file not found")
	}
	if st.IsDir() {
		return nil, fieldError("file", "path is a directory")
	}
	if st.Size() == 0 {
		return nil, fieldError("file", "file is empty")
	}

	info := &FileInfo{Name: filepath.Base(path), Ext: ext, Size: st.Size()}
	if ext != ".pdf" {
		return info, nil
	}

	pages, preview, err := inspectPDF(path)
	if err != nil {
		return nil, fieldError("file", "PDF could not be read")
	}
	if pages == 0 {
		return nil, fieldError("file", "PDF has no pages")
	}
	info.Pages = pages
	info.Preview = preview
	return info, nil
}

// inspectPDF returns the page count and the leading text of the first page
// that has any. Scanned PDFs have none, which is fine.
func inspectPDF(path string) (pages int, preview string, err error) {
	defer func() {
		// The pdf reader panics on some malformed xref tables.
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	pages = reader.NumPage()
	for i := 1; i <= pages && preview == ""; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		preview = previewText(content)
	}
	return pages, preview, nil
}

// previewText flattens extracted page text onto one line and cuts it at
// MaxPreview runes.
func previewText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxPreview {
		s = strings.TrimSpace(string(r[:MaxPreview])) + "…"
	}
	return s
}
