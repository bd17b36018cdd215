package recommend

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a supportive mental wellness assistant. You are not a therapist and you never diagnose.
Reply with a single JSON object and nothing else.`

const analysisPrompt = `Analyze this person's emotional state from their actual words and provide personalized recommendations.

**Their actual text:**
"%s"

**AI model detected:** %s (but you should read the text yourself for accuracy)
**Emotions flagged:** %s
**Concerns flagged:** %s

**Your task:**
1. Read the actual text to understand the TRUE emotional state
2. If you detect heartbreak, rejection, relationship issues, disappointment - address THOSE
3. If you detect schadenfreude (joy at others' misfortune) - guide toward healthier mindset
4. If genuinely positive - help maintain and amplify it
5. Provide 2-3 specific, actionable recommendations based on what YOU detect

Return ONLY valid JSON with NO markdown formatting. Escape all quotes and special characters properly in strings:
{
  "suggestions": [
    {
      "priority": "high",
      "title": "Specific to their situation",
      "description": "Actionable steps addressing their ACTUAL emotional state",
      "rationale": "Why this helps for THEIR specific situation"
    }
  ],
  "immediate_actions": [
    "Action addressing their real emotion",
    "Practical step they can do now",
    "Coping technique for their situation"
  ]
}

- Use \" for quotes inside strings
- Use \n for line breaks
- Keep all text on single lines within JSON strings`

const crisisPrompt = `Provide calming techniques for someone in emotional distress.

Context:
- Emotions: %s
- Concerns: %s

Provide 2-3 immediate calming techniques focusing on breathing, grounding, and self-soothing.

Return ONLY valid JSON with NO markdown formatting. Escape all quotes and special characters properly:
{
  "suggestions": [
    {
      "priority": "critical",
      "title": "Reach Out for Support",
      "description": "Talk to someone you trust - a friend, family member, or someone who cares. You don't have to face this alone.",
      "rationale": "Social connection helps reduce isolation and provides emotional support."
    },
    {
      "priority": "high",
      "title": "Grounding Technique",
      "description": "Use 5-4-3-2-1: Name 5 things you see, 4 you touch, 3 you hear, 2 you smell, 1 you taste.",
      "rationale": "Grounding brings you to the present moment and calms your nervous system."
    }
  ],
  "immediate_actions": [
    "Take 5 slow deep breaths - in for 4, hold for 4, out for 6",
    "Put your hand over your heart - you are here, you are safe",
    "Reach out to someone you trust"
  ]
}`

// BuildPrompt returns the system and user prompts for req. Crisis contexts
// get a prompt that asks only for calming techniques and does not embed the
// raw text.
func BuildPrompt(req Request) (string, string) {
	if req.Context.Crisis {
		return systemPrompt, fmt.Sprintf(crisisPrompt,
			joinOr(req.Context.Emotions, "High distress"),
			joinOr(req.Context.Concerns, "Intense emotions"))
	}

	return systemPrompt, fmt.Sprintf(analysisPrompt,
		req.Text,
		req.Sentiment,
		joinOr(req.Context.Emotions, "None flagged"),
		joinOr(req.Context.Concerns, "None flagged"))
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
