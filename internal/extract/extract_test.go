package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref        string
		wantFormat Format
		wantOK     bool
	}{
		{"report.pdf", FormatPDF, true},
		{"a/b/report.PDF", FormatPDF, true},
		{"minutes.docx", FormatDOCX, true},
		{"deck.pptx", FormatPPTX, true},
		{"notes.txt", FormatTXT, true},
		{"data.csv", FormatCSV, true},
		{"archive.zip", 0, false},
		{"image.png", 0, false},
		{"legacy.doc", 0, false},
		{"noextension", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.ref, func(t *testing.T) {
			t.Parallel()
			format, ok := DetectFormat(tc.ref)
			if ok != tc.wantOK {
				t.Fatalf("DetectFormat(%q): ok = %v, want %v", tc.ref, ok, tc.wantOK)
			}
			if ok && format != tc.wantFormat {
				t.Errorf("DetectFormat(%q) = %v, want %v", tc.ref, format, tc.wantFormat)
			}
		})
	}
}

func TestTxtText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	const content = "first line\nsecond line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Text(path, FormatTXT)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != content {
		t.Errorf("got %q, want %q", got, content)
	}
}

func TestCSVText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	const csv = "name,amount\nalpha,10\nbeta,20,extra\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Text(path, FormatCSV)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "name amount\nalpha 10\nbeta 20 extra"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// writeZip creates a zip file at path containing the given name→content entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDOCXText(t *testing.T) {
	t.Parallel()

	const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p/>
  </w:body>
</w:document>`

	path := filepath.Join(t.TempDir(), "minutes.docx")
	writeZip(t, path, map[string]string{
		"word/document.xml": documentXML,
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	})

	got, err := Text(path, FormatDOCX)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "First paragraph.\nSecond paragraph.\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDOCXText_MissingDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.docx")
	writeZip(t, path, map[string]string{"other.xml": "<x/>"})

	if _, err := Text(path, FormatDOCX); err == nil {
		t.Error("expected error for archive without word/document.xml")
	}
}

func TestPPTXText(t *testing.T) {
	t.Parallel()

	slide := func(texts ...string) string {
		body := ""
		for _, txt := range texts {
			body += `<p:sp><p:txBody><a:p><a:r><a:t>` + txt + `</a:t></a:r></a:p></p:txBody></p:sp>`
		}
		return `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>` + body + `</p:spTree></p:cSld>
</p:sld>`
	}

	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeZip(t, path, map[string]string{
		// Slide 10 sorts after slide 2 numerically, not lexically.
		"ppt/slides/slide1.xml":  slide("Title"),
		"ppt/slides/slide2.xml":  slide("Middle"),
		"ppt/slides/slide10.xml": slide("Last"),
	})

	got, err := Text(path, FormatPPTX)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "Title\nMiddle\nLast"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestText_CorruptArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Text(path, FormatDOCX); err == nil {
		t.Error("expected error for corrupt archive")
	}
}
