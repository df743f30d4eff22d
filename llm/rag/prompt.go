package rag

import (
	"fmt"
	"strings"

	"docsage/llm"
)

// InsufficientEvidence is the exact phrase the synthesizer must lead with
// when the retrieved context cannot answer the question. Tests and the
// orchestrator match on it, so it is a shared constant.
const InsufficientEvidence = "I'm sorry, but I don't have enough information to answer that question."

// answerContract is the fixed, non-user-editable instruction boilerplate.
// It embeds the retrieved context and the user query verbatim and nothing
// else; no outside knowledge enters at assembly time.
const answerContract = `You are an assistant that answers questions strictly from retrieved documents.

Rules:
- Use ONLY the retrieved context below, with no prior knowledge.
- Cite the source identifier from the SOURCES list next to any quoted or paraphrased content, e.g. [%s].
- If the context contains no information relevant to the question, reply exactly:
  %s
- Keep the answer to 3-5 sentences unless the user explicitly asks for more detail.
`

const imageContract = `- Image evidence is attached. Use the image(s) first and foremost; fall back to the text context only where the images are not enough.
`

// exampleCitation seeds the citation format in the contract.
const exampleCitation = "manual.pdf#2"

// Prompt is an assembled, ready-to-synthesize request.
type Prompt struct {
	// Text is the full rendered instruction.
	Text string
	// Context is the concatenation of retrieved chunk texts, ranked
	// order, blank-line separated. Empty on degenerate retrieval.
	Context string
	// Query is the user question, verbatim.
	Query string
	// ImagePaths are the distinct image assets referenced by the
	// retrieved chunks, in rank order. Non-empty switches synthesis to
	// the multimodal model.
	ImagePaths []string
	// Sources identifies each retained chunk, aligned with the context
	// ordering.
	Sources []string
}

// Assembler merges retrieved chunks and the user query into a Prompt.
type Assembler struct {
	// MaxContextChars caps the context; lowest-ranked chunks are dropped
	// whole until the remainder fits. Zero means no cap.
	MaxContextChars int
}

// NewAssembler creates an assembler with the given context cap.
func NewAssembler(maxContextChars int) *Assembler {
	return &Assembler{MaxContextChars: maxContextChars}
}

// Assemble renders the prompt. An empty retrieval still produces a valid
// prompt with an empty context; the contract then forces the
// insufficient-evidence reply.
func (a *Assembler) Assemble(query string, results []llm.SearchResult) Prompt {
	kept := a.fitContext(results)

	texts := make([]string, 0, len(kept))
	sources := make([]string, 0, len(kept))
	var images []string
	seen := make(map[string]struct{})

	for _, r := range kept {
		texts = append(texts, r.Chunk.Content)
		sources = append(sources, sourceID(r.Chunk))
		for _, img := range r.Chunk.ImagePaths {
			if _, ok := seen[img]; ok {
				continue
			}
			seen[img] = struct{}{}
			images = append(images, img)
		}
	}

	context := strings.Join(texts, "\n\n")

	var sb strings.Builder
	fmt.Fprintf(&sb, answerContract, exampleCitation, InsufficientEvidence)
	if len(images) > 0 {
		sb.WriteString(imageContract)
	}

	sb.WriteString("\nRETRIEVED CONTEXT:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nSOURCES:\n")
	for _, s := range sources {
		sb.WriteString("- ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nQUESTION:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nANSWER:\n")

	return Prompt{
		Text:       sb.String(),
		Context:    context,
		Query:      query,
		ImagePaths: images,
		Sources:    sources,
	}
}

// fitContext drops lowest-ranked chunks until the joined context fits
// the cap. Highest-relevance chunks always survive.
func (a *Assembler) fitContext(results []llm.SearchResult) []llm.SearchResult {
	if a.MaxContextChars <= 0 {
		return results
	}

	total := 0
	for i, r := range results {
		total += len(r.Chunk.Content)
		if i > 0 {
			total += 2 // separator
			if total > a.MaxContextChars {
				return results[:i]
			}
		}
	}
	return results
}

// sourceID renders the citation identifier for one chunk.
func sourceID(c llm.Chunk) string {
	id := fmt.Sprintf("%s#%d", c.Source, c.ChunkIndex)
	if c.PageNum > 0 {
		id += fmt.Sprintf(" (page %d)", c.PageNum)
	}
	return id
}
