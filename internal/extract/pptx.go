package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// slidePattern matches the slide part names inside a PPTX archive and
// captures the slide number for ordering.
var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptxSlide mirrors the subset of a slide's XML needed to pull text out of
// its shapes. Shape order within the slide follows document order.
type pptxSlide struct {
	Shapes []pptxShape `xml:"cSld>spTree>sp"`
}

type pptxShape struct {
	Paragraphs []pptxParagraph `xml:"txBody>p"`
}

type pptxParagraph struct {
	Runs []pptxRun `xml:"r"`
}

type pptxRun struct {
	Text string `xml:"t"`
}

// pptxText extracts text-bearing shape contents across all slides in slide
// order, then shape order within a slide, newline-joined. A PPTX file is a
// ZIP archive with one XML part per slide under ppt/slides/.
func pptxText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("extract: open pptx %s: %w", path, err)
	}
	defer reader.Close()

	type slideRef struct {
		num  int
		name string
	}
	var slides []slideRef
	for _, file := range reader.File {
		m := slidePattern.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideRef{num: num, name: file.Name})
	}
	// Archive entry order is not guaranteed to match slide order.
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var texts []string
	for _, ref := range slides {
		raw, err := readArchiveFile(&reader.Reader, ref.name)
		if err != nil {
			return "", fmt.Errorf("extract: pptx %s: %w", path, err)
		}

		var slide pptxSlide
		if err := xml.Unmarshal(raw, &slide); err != nil {
			return "", fmt.Errorf("extract: parse pptx %s slide %d: %w", path, ref.num, err)
		}

		for _, shape := range slide.Shapes {
			if len(shape.Paragraphs) == 0 {
				continue
			}
			paragraphs := make([]string, 0, len(shape.Paragraphs))
			for _, para := range shape.Paragraphs {
				var sb strings.Builder
				for _, run := range para.Runs {
					sb.WriteString(run.Text)
				}
				paragraphs = append(paragraphs, sb.String())
			}
			texts = append(texts, strings.Join(paragraphs, "\n"))
		}
	}
	return strings.Join(texts, "\n"), nil
}
