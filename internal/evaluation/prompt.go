package evaluation

import "strings"

// SystemPrompt fixes the task contract sent with every evaluation.
const SystemPrompt = `You are an assistant that evaluates how well a resume matches a job offer.
You will receive two plain-text documents:
* the resume (skills, experience, education, certifications and similar details)
* the job offer (responsibilities, required and preferred qualifications, skills and similar details)
Your task:
1. Compare the resume with the job offer and judge how well they align.
2. Reply with a JSON object that has exactly two fields:
   * "score": an integer from 0 to 100, higher meaning a closer match.
   * "reason": a concise explanation of the score naming the key matches and gaps (missing skills, years of experience, education, strong alignment and so on).
IMPORTANT: Reply with ONLY the raw JSON object. No prose, no preamble, no conversational text and no markdown code fences.`

// BuildPrompt renders the system and user prompts for one evaluation.
// Both texts are embedded verbatim, including when empty.
func BuildPrompt(resumeText, jobOfferText string) (system, user string) {
	var b strings.Builder
	b.Grow(len(resumeText) + len(jobOfferText) + 256)
	b.WriteString("Here is the resume:\n---\n")
	b.WriteString(resumeText)
	b.WriteString("\n---\n\nHere is the job offer:\n---\n")
	b.WriteString(jobOfferText)
	b.WriteString("\n---\n\n")
	b.WriteString(`Please evaluate the match and reply with a JSON object with "score" and "reason" fields, exactly as specified in the system prompt.`)
	return SystemPrompt, b.String()
}
