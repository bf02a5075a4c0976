// Package markdown renders the small markdown subset produced for teachers:
// level-2 headings, paragraphs and bold spans. Everything else passes
// through as literal text.
package markdown

import (
	"regexp"
	"strings"
)

const headingMarker = "## "

// boldRe matches the shortest **…** pair on a line.
var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// BlockKind identifies the display element of a block.
type BlockKind string

const (
	// Heading is a level-2 heading.
	Heading BlockKind = "heading"
	// Paragraph is a single non-blank source line.
	Paragraph BlockKind = "paragraph"
)

// Span is a run of text inside a block.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Block is one rendered line.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Spans []Span    `json:"spans"`
}

// Text returns the block's text with markers removed.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Render converts text into display blocks. Blank lines produce no block.
// Render never fails.
func Render(text string) []Block {
	if text == "" {
		return nil
	}

	var blocks []Block
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, headingMarker) {
			blocks = append(blocks, Block{
				Kind:  Heading,
				Spans: Inline(line[len(headingMarker):]),
			})
			continue
		}
		if strings.TrimSpace(line) != "" {
			blocks = append(blocks, Block{
				Kind:  Paragraph,
				Spans: Inline(line),
			})
		}
	}
	return blocks
}

// Inline splits a line into plain and bold spans. Unpaired markers stay literal.
func Inline(line string) []Span {
	matches := boldRe.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		if line == "" {
			return nil
		}
		return []Span{{Text: line}}
	}

	spans := make([]Span, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, Span{Text: line[last:m[0]]})
		}
		spans = append(spans, Span{Text: line[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Text: line[last:]})
	}
	return spans
}
