package google

import (
	"testing"

	"github.com/spetersoncode/promptcraft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func textCandidate(reason genai.FinishReason, text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: reason,
			Content:      genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func TestValidateResponse(t *testing.T) {
	t.Run("accepts stop", func(t *testing.T) {
		c, err := validateResponse(textCandidate("STOP", "hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", candidateText(c))
	})

	t.Run("no candidates is malformed", func(t *testing.T) {
		_, err := validateResponse(&genai.GenerateContentResponse{})
		assert.Equal(t, promptcraft.KindMalformedResponse, promptcraft.KindOf(err))
	})

	t.Run("prompt feedback block is a safety error", func(t *testing.T) {
		_, err := validateResponse(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"},
		})
		assert.Equal(t, promptcraft.KindSafetyBlock, promptcraft.KindOf(err))
	})

	t.Run("safety lists blocked categories", func(t *testing.T) {
		resp := textCandidate("SAFETY", "")
		resp.Candidates[0].SafetyRatings = []*genai.SafetyRating{
			{Category: "HARM_CATEGORY_HARASSMENT", Blocked: true},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Blocked: false},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Blocked: true},
		}
		_, err := validateResponse(resp)
		var perr *promptcraft.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, promptcraft.KindSafetyBlock, perr.Kind)
		assert.Equal(t, []string{"HARASSMENT", "DANGEROUS_CONTENT"}, perr.Categories)
		assert.Contains(t, promptcraft.UserMessage(err), "HARASSMENT, DANGEROUS_CONTENT")
	})

	t.Run("finish reasons map to kinds", func(t *testing.T) {
		cases := map[genai.FinishReason]promptcraft.ErrorKind{
			"IMAGE_SAFETY": promptcraft.KindSafetyBlock,
			"RECITATION":   promptcraft.KindRecitation,
			"MAX_TOKENS":   promptcraft.KindTruncated,
			"NO_IMAGE":     promptcraft.KindNoImage,
			"OTHER":        promptcraft.KindUnknown,
		}
		for reason, kind := range cases {
			_, err := validateResponse(textCandidate(reason, "x"))
			assert.Equal(t, kind, promptcraft.KindOf(err), string(reason))
		}
	})

	t.Run("empty content is malformed", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: "STOP"}}}
		_, err := validateResponse(resp)
		assert.Equal(t, promptcraft.KindMalformedResponse, promptcraft.KindOf(err))
	})
}

func TestCandidateImage(t *testing.T) {
	c := &genai.Candidate{Content: genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText("here you go"),
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	}, genai.RoleModel)}

	blob := candidateImage(c)
	require.NotNil(t, blob)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, "here you go", candidateText(c))
}
