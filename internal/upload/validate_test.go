package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeMinimalPDF writes a one-page PDF with a valid xref table.
func writeMinimalPDF(t *testing.T, path string) {
	t.Helper()
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}

func TestInspect_Rejects(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	os.WriteFile(empty, nil, 0o644)
	broken := filepath.Join(dir, "broken.pdf")
	os.WriteFile(broken, []byte("not a pdf at all"), 0o644)
	folder := filepath.Join(dir, "folder.pdf")
	os.Mkdir(folder, 0o755)
	doc := filepath.Join(dir, "notes.docx")
	os.WriteFile(doc, []byte("x"), 0o644)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"no file", "", "Please select a file"},
		{"unsupported type", doc, `unsupported file type ".docx" (use PDF, PNG or JPG)`},
		{"missing", filepath.Join(dir, "gone.pdf"), "file not found"},
		{"directory", folder, "path is a directory"},
		{"empty", empty, "file is empty"},
		{"unreadable pdf", broken, "PDF could not be read"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Inspect(tc.path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Error() != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, verr.Error())
			}
		})
	}
}

func TestInspect_Image(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Scan.JPG")
	os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0o644)

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Ext != ".jpg" || info.Name != "Scan.JPG" || info.Size != 3 {
		t.Errorf("Unexpected info %+v", info)
	}
}

func TestInspect_PDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.pdf")
	writeMinimalPDF(t, path)

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Pages != 1 {
		t.Errorf("Expected 1 page, got %d", info.Pages)
	}
}

func TestPreviewText(t *testing.T) {
	if got := previewText("  Scheme A \r\n\r\n\r\n  benefits  \n"); got != "Scheme A benefits" {
		t.Errorf("Expected text on one line, got %q", got)
	}

	long := strings.Repeat("a", MaxPreview+10)
	got := []rune(previewText(long))
	if len(got) != MaxPreview+1 || got[len(got)-1] != '…' {
		t.Errorf("Expected preview cut at %d runes, got %d", MaxPreview, len(got))
	}
}
