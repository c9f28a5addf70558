package service

import (
	"fmt"
	"strings"

	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

// ComplianceChunker turns a section tree into retrieval chunks. Tables are
// always emitted as single whole chunks carrying their HTML; narrative
// content is packed up to the size limit and split only at sentence
// boundaries. A sentence containing an obligation marker is never cut.
type ComplianceChunker struct {
	size    int
	overlap int
}

func NewComplianceChunker(cfg config.EngineConfig) *ComplianceChunker {
	return &ComplianceChunker{
		size:    cfg.ChunkSize,
		overlap: cfg.ChunkOverlap,
	}
}

var obligationMarkers = []string{"shall", "must", "required"}

func hasObligationMarker(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, marker := range obligationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ChunkDocument walks the section tree in document order and emits chunks
// that inherit base metadata plus their section path. Chunk ids are
// deterministic for a given document so re-indexing overwrites in place.
func (c *ComplianceChunker) ChunkDocument(roots []*types.SectionNode, base types.ChunkMetadata) []types.Chunk {
	seed := base.DocumentID
	if seed == "" {
		seed = base.SourceFile
	}
	w := &chunkWriter{chunker: c, base: base, seed: seed}
	for _, root := range roots {
		c.walkSection(root, nil, w)
	}
	return w.chunks
}

func (c *ComplianceChunker) walkSection(node *types.SectionNode, path []string, w *chunkWriter) {
	if node.Title != "" {
		path = append(path, node.Title)
	}
	c.chunkElements(node.Elements, path, w)
	for _, child := range node.Children {
		c.walkSection(child, path, w)
	}
}

// chunkElements packs one section's elements. Overlap carries only between
// consecutive narrative chunks of the same section; a table resets it.
func (c *ComplianceChunker) chunkElements(elements []types.Element, path []string, w *chunkWriter) {
	var buf strings.Builder
	bufPage := 0
	prevTail := ""

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		body := text
		if prevTail != "" {
			body = prevTail + "\n" + text
		}
		w.emit(body, "", types.ElementNarrativeText, path, bufPage)
		prevTail = tailOverlap(text, c.overlap)
	}

	for _, elem := range elements {
		text := strings.TrimSpace(elem.Text)
		switch elem.Kind {
		case types.ElementTable:
			flush()
			if text != "" || elem.HTML != "" {
				w.emit(text, elem.HTML, types.ElementTable, path, elem.PageNumber)
			}
			prevTail = ""
		case types.ElementFooter, types.ElementPageBreak:
			// boilerplate, not worth indexing
		default:
			if text == "" {
				continue
			}
			if buf.Len() == 0 {
				bufPage = elem.PageNumber
			}
			if buf.Len() > 0 && buf.Len()+len(text)+1 > c.size {
				flush()
				bufPage = elem.PageNumber
			}
			if len(text) > c.size {
				flush()
				bufPage = elem.PageNumber
				for _, piece := range c.splitLongText(text) {
					body := piece
					if prevTail != "" {
						body = prevTail + "\n" + piece
					}
					w.emit(body, "", elem.Kind, path, elem.PageNumber)
					prevTail = tailOverlap(piece, c.overlap)
				}
				continue
			}
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(text)
		}
	}
	flush()
}

// splitLongText breaks oversized text at sentence boundaries. A single
// sentence over the limit is kept whole when it carries an obligation
// marker, otherwise it is split at word boundaries.
func (c *ComplianceChunker) splitLongText(text string) []string {
	sentences := splitSentences(text)
	var pieces []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			pieces = append(pieces, s)
		}
		buf.Reset()
	}
	for _, sentence := range sentences {
		if buf.Len() > 0 && buf.Len()+len(sentence)+1 > c.size {
			flush()
		}
		if len(sentence) > c.size && !hasObligationMarker(sentence) {
			flush()
			pieces = append(pieces, splitWords(sentence, c.size)...)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
	}
	flush()
	return pieces
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace, and on newlines. Good enough for regulatory prose; exact
// linguistic boundaries do not matter here.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		boundary := false
		if ch == '\n' {
			boundary = true
		} else if (ch == '.' || ch == '!' || ch == '?') &&
			(i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n') {
			boundary = true
		}
		if boundary {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func splitWords(text string, size int) []string {
	words := strings.Fields(text)
	var pieces []string
	var buf strings.Builder
	for _, word := range words {
		if buf.Len() > 0 && buf.Len()+len(word)+1 > size {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(word)
	}
	if buf.Len() > 0 {
		pieces = append(pieces, buf.String())
	}
	return pieces
}

// tailOverlap returns the last n characters of text trimmed to start on a
// word boundary.
func tailOverlap(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// chunkWriter assigns sequential deterministic ids as chunks are emitted.
type chunkWriter struct {
	chunker *ComplianceChunker
	base    types.ChunkMetadata
	seed    string
	chunks  []types.Chunk
}

func (w *chunkWriter) emit(text, html string, kind types.ElementKind, path []string, page int) {
	meta := w.base
	meta.SectionPath = append([]string(nil), path...)
	meta.PageNumber = page
	meta.ElementKind = kind
	w.chunks = append(w.chunks, types.Chunk{
		ID:       fmt.Sprintf("%s:%d", w.seed, len(w.chunks)),
		Text:     text,
		HTML:     html,
		Metadata: meta,
	})
}
