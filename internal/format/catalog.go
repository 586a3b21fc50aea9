// Package format holds the fixed catalog of note-style templates plus
// the custom variant. A selection is resolved here, once, into a plain
// template string; nothing downstream knows which variant produced it.
package format

import (
	"fmt"
	"strings"

	"studyrag/internal/domain"
)

// Placeholder marks where retrieved lecture content is substituted into
// a template.
const Placeholder = "{context}"

// CustomKey selects the caller-supplied template variant.
const CustomKey = "custom"

// Format is one catalog entry.
type Format struct {
	Key      string
	Label    string
	Template string
}

const preamble = "You are a study assistant. Using only the lecture content below, "
const contextBlock = "\n\nLecture content:\n" + Placeholder

var catalog = []Format{
	{"detailed", "Detailed Structured Study Notes", preamble + "write detailed study notes in Markdown with hierarchical headings, sub-points, and examples." + contextBlock},
	{"mind-map", "Conceptual Mind Map Style", preamble + "lay the material out as a textual mind map: a central theme with branches and sub-branches of related concepts." + contextBlock},
	{"step-by-step", "Step-by-Step Explanation", preamble + "explain the material as an ordered sequence of numbered steps, each building on the previous one." + contextBlock},
	{"comparison-table", "Comparison Table", preamble + "present the key concepts as Markdown comparison tables contrasting their properties." + contextBlock},
	{"key-terms", "Key Terms and Definitions", preamble + "list every important term with a concise definition and one usage example." + contextBlock},
	{"flashcards", "Flashcard Style", preamble + "produce question/answer flashcards covering every major concept, one Q and A pair per card." + contextBlock},
	{"formula-sheet", "Formula + Concept Sheet", preamble + "collect all formulas with the concept each expresses and the meaning of every symbol." + contextBlock},
	{"topic-clusters", "Topic Clusters", preamble + "group the material into named topic clusters and summarize each cluster in a few bullets." + contextBlock},
	{"cause-effect", "Cause and Effect Notes", preamble + "express the material as cause-and-effect chains, making each causal link explicit." + contextBlock},
	{"exam-highlights", "Exam-Ready Highlights", preamble + "extract the points most likely to appear in an exam, with short justifications." + contextBlock},
	{"applications", "Practical Applications", preamble + "describe practical, real-world applications of each concept covered." + contextBlock},
	{"pros-cons", "Pros and Cons", preamble + "list the advantages and disadvantages of each approach or technique discussed." + contextBlock},
	{"problem-solution", "Problem-Solution Format", preamble + "frame the material as problems and their solutions, stating each problem before solving it." + contextBlock},
	{"analogies", "Explainer with Analogies", preamble + "explain each concept through an everyday analogy, then give the precise technical version." + contextBlock},
	{"highlight-expand", "Highlight + Expand", preamble + "highlight the most important statements verbatim, then expand each with a short explanation." + contextBlock},
	{"cheat-sheet", "Quick Review Cheat Sheet", preamble + "compress everything into a one-page cheat sheet of terse, scannable bullets." + contextBlock},
}

// Catalog returns the fixed formats in presentation order. The custom
// variant is not listed; it is selected by key with caller-supplied text.
func Catalog() []Format {
	out := make([]Format, len(catalog))
	copy(out, catalog)
	return out
}

// Resolve turns a selection into its template string. A custom selection
// must carry non-empty template text; a fixed selection must name a
// catalog entry.
func Resolve(choice domain.FormatChoice) (string, error) {
	if choice.Key == CustomKey {
		if strings.TrimSpace(choice.Custom) == "" {
			return "", domain.ErrCustomTemplateRequired
		}
		return choice.Custom, nil
	}
	for _, f := range catalog {
		if f.Key == choice.Key {
			return f.Template, nil
		}
	}
	return "", fmt.Errorf("unknown notes format %q", choice.Key)
}

// Validate checks a selection without resolving it, for use at
// selection time.
func Validate(choice domain.FormatChoice) error {
	_, err := Resolve(choice)
	return err
}
