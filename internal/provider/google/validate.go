package google

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/promptcraft"
	"google.golang.org/genai"
)

// validateResponse checks the first candidate of a response and returns it.
// Blocked, truncated or empty responses become classified errors.
func validateResponse(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, promptcraft.NewSafetyError(blockedCategories(resp.PromptFeedback.SafetyRatings))
		}
		return nil, promptcraft.NewError(promptcraft.KindMalformedResponse,
			"the model did not provide a valid response; this may be due to the safety policy", 0, nil)
	}

	candidate := resp.Candidates[0]
	switch reason := string(candidate.FinishReason); reason {
	case "", "STOP", "FINISH_REASON_UNSPECIFIED":
	case "SAFETY", "IMAGE_SAFETY", "PROHIBITED_CONTENT", "IMAGE_PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return nil, promptcraft.NewSafetyError(blockedCategories(candidate.SafetyRatings))
	case "RECITATION", "IMAGE_RECITATION":
		return nil, promptcraft.NewError(promptcraft.KindRecitation,
			"the response was too similar to a source", 0, nil)
	case "MAX_TOKENS":
		return nil, promptcraft.NewError(promptcraft.KindTruncated,
			"the response reached the maximum length", 0, nil)
	case "NO_IMAGE":
		return nil, promptcraft.NewNoImageError(candidateText(candidate))
	default:
		return nil, promptcraft.NewError(promptcraft.KindUnknown,
			fmt.Sprintf("The generation failed due to an unhandled reason: %s.", reason), 0, nil)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, promptcraft.NewError(promptcraft.KindMalformedResponse,
			"the model returned an empty response; this might be due to a content filter", 0, nil)
	}
	return candidate, nil
}

// blockedCategories lists the categories of blocked ratings without the
// HARM_CATEGORY_ prefix.
func blockedCategories(ratings []*genai.SafetyRating) []string {
	var cats []string
	for _, r := range ratings {
		if r == nil || !r.Blocked {
			continue
		}
		cats = append(cats, strings.TrimPrefix(string(r.Category), "HARM_CATEGORY_"))
	}
	return cats
}

// candidateText concatenates the non-thought text parts of a candidate.
func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// candidateImage returns the first inline image of a candidate.
func candidateImage(candidate *genai.Candidate) *genai.Blob {
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}
