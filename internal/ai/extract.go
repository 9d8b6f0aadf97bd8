package ai

import (
	"context"
	"fmt"
	"strings"
)

// maxCharsPerChunk keeps each extraction prompt well inside the model's
// context window.
const maxCharsPerChunk = 15000

const extractPromptSingle = `Analyze this educational content and extract key information for creating flashcards.

Your task:
1. Identify main concepts, topics, and themes
2. Extract important definitions and explanations
3. Highlight key points, facts, and summaries
4. Note any examples, case studies, or applications

Provide a comprehensive, well-structured summary that captures ALL the important educational content.

Document content:
%s`

const extractPromptChunk = `Analyze this section (part %d/%d) of an educational document and extract key information.

Your task:
1. Identify main concepts, topics, and themes
2. Extract important definitions and explanations
3. Highlight key points, facts, and summaries

Provide a clear summary of the educational content in this section.

Content:
%s`

// ExtractStudyNotes condenses raw document text into study notes suitable as
// generation input. Long documents are chunked and summarized per chunk.
func ExtractStudyNotes(ctx context.Context, completer ChatCompleter, text string) (string, error) {
	if len(text) <= maxCharsPerChunk {
		result, err := completer.Complete(ctx, ChatRequest{
			Messages: []Message{
				{Role: RoleUser, Content: fmt.Sprintf(extractPromptSingle, text)},
			},
			MaxTokens:   4000,
			Temperature: 0.2,
		})
		if err != nil {
			return "", fmt.Errorf("extracting study notes: %w", err)
		}
		return result.Text, nil
	}

	var chunks []string
	for i := 0; i < len(text); i += maxCharsPerChunk {
		end := i + maxCharsPerChunk
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
	}

	summaries := make([]string, 0, len(chunks))
	for idx, chunk := range chunks {
		result, err := completer.Complete(ctx, ChatRequest{
			Messages: []Message{
				{Role: RoleUser, Content: fmt.Sprintf(extractPromptChunk, idx+1, len(chunks), chunk)},
			},
			MaxTokens:   2000,
			Temperature: 0.2,
		})
		if err != nil {
			return "", fmt.Errorf("extracting study notes (chunk %d/%d): %w", idx+1, len(chunks), err)
		}
		summaries = append(summaries, result.Text)
	}

	return strings.Join(summaries, "\n\n"), nil
}
