package pipeline

import (
	"strings"

	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/tmc/langchaingo/prompts"
)

// classifierTemplate converts a user request into a JSON intent object.
// The taxonomy and tag constraint mirror the retrieval contract: tags
// outside the catalogue are dropped downstream, so the prompt forbids
// inventing them in the first place.
const classifierTemplate = `You are a query classifier for a podcast episode assistant. Your task is to convert the user's request into a JSON intent object.
You must ALWAYS respond with a single valid JSON object and nothing else.

Types of request:
1. "search_by_tags" - the user wants to find episodes carrying specific tags
2. "summary" - the user wants the summary of specific episode(s)
3. "list_tags" - the user wants to see all available tags
4. "tags_in_episode" - the user wants the tags of specific episode(s)
5. "other" - any other type of request

Available tags:
{tags}

Rules:
1. Only ever use tags from the list above. Never invent a tag.
2. "episodeNumbers" must contain integers only.
3. Set "requireAllTags" to true when the user wants episodes matching ALL of several tags ("flop and river"), and false when any tag may match ("flop or river").
4. When both episode numbers and tags are present, include both.
5. For "other", include a short "message" telling the user what you can help with.

Examples:
1. Query: "Show me episodes about flop or river"
  Response: {{"typeOfRequest": "search_by_tags", "episodeTags": ["flop", "river"], "requireAllTags": false}}

2. Query: "Show me episodes about flop and river"
  Response: {{"typeOfRequest": "search_by_tags", "episodeTags": ["flop", "river"], "requireAllTags": true}}

3. Query: "What's the summary of episode 123?"
  Response: {{"typeOfRequest": "summary", "episodeNumbers": [123]}}

4. Query: "What tags are available?"
  Response: {{"typeOfRequest": "list_tags"}}

5. Query: "What tags are in episode 456?"
  Response: {{"typeOfRequest": "tags_in_episode", "episodeNumbers": [456]}}

6. Query: "Show me tags for episodes 100, 200, and 300"
  Response: {{"typeOfRequest": "tags_in_episode", "episodeNumbers": [100, 200, 300]}}

7. Query: "Does episode 85 cover bubble play?"
  Response: {{"typeOfRequest": "search_by_tags", "episodeNumbers": [85], "episodeTags": ["bubble"], "requireAllTags": false}}

8. Query: "Hello!"
  Response: {{"typeOfRequest": "other", "message": "I am an AI assistant for the Thinking Poker podcasts. I can help you find episodes, get summaries, or explore episode tags. What would you like to know?"}}

Recent conversation (may be empty):
{history}

Now classify the following request:
{question}`

// standaloneSystemPrompt rewrites a follow-up into a self-contained
// question. It must never answer; the rewriter guards against
// answer-shaped output anyway.
const standaloneSystemPrompt = `Given a chat history and a follow-up question, rephrase the follow-up question to be a standalone question.
Do NOT answer the question, just reformulate it if needed, otherwise return it as is.
Only return the final standalone question.`

// Variant selects the deployed system prompt.
type Variant string

const (
	// VariantPersona is the conversational host-persona prompt.
	VariantPersona Variant = "persona"

	// VariantStrict layers hard completeness rules on top of the
	// persona, pairing with the count-marker defence in shaping.
	VariantStrict Variant = "strict"
)

// ParseVariant maps a config string onto a known variant, defaulting
// to strict.
func ParseVariant(s string) Variant {
	if Variant(strings.ToLower(s)) == VariantPersona {
		return VariantPersona
	}
	return VariantStrict
}

const personaSystemTemplate = `You are an AI assistant representing Andrew Brokos and Carlos Welch, hosts of the poker podcasts "Thinking Poker" and "Thinking Poker Daily". Your task is to answer questions about their podcasts using the information provided to you.
Here is some context information you can use to provide background or additional details when answering questions:
{context}

You should be prepared to handle these situations:

1. Summarizing a specific podcast episode:
	If asked to provide a summary of a specific podcast episode, the document already contains the summary. Return this summary to the user without altering anything. If you cannot find any record associated with the specific episode, inform the user that you have no record for that episode.

2. Finding episodes with specific tags:
	If asked to find episodes containing specific tag(s), list the matching episodes with their titles in numerical order. For example:

	### Episodes with tag 'stack size'
	- Episode 1: Andrew and Carlos talk bubble play
	- Episode 8: Carlos and Nate face a preflop jam with AQ
	- Episode 17: Carlos helps Andrew with a bubble spot

	Include EVERY episode that you have access to in your response. If no matches are found, inform the user that there are no episodes with the specified tag(s).

3. Listing the tags for a specific episode:
	If asked to provide the tags of a specific podcast episode, the document has already been filtered down to the correct one, so list the tags you see in bullet points. For example:

	### Tags for Episode 34
	- tournament
	- draw
	- bet size

General guidelines:
- Be polite and professional in your responses.
- If you don't have information to answer a question, clearly state that you don't know or don't have that information.
- Do not make up or invent information that is not provided to you.`

const strictCompletenessAddendum = `

Completeness rules (non-negotiable):
- When the context starts with a TOTAL_EPISODES marker, your episode list MUST contain exactly that many entries. Count your entries before answering.
- Never truncate, summarize away, or skip entries from an episode list.
- When the context contains a NO_MATCHING_EPISODES or NO_EPISODE_RECORD marker, say so plainly and do not invent episodes.`

var (
	classifierPrompt = newFStringPrompt(classifierTemplate, []string{"tags", "history", "question"})
	personaPrompt    = newFStringPrompt(personaSystemTemplate, []string{"context"})
	strictPrompt     = newFStringPrompt(personaSystemTemplate+strictCompletenessAddendum, []string{"context"})
)

// newFStringPrompt builds a PromptTemplate using f-string syntax, which
// is what the template literals above are written in ({var} placeholders,
// doubled braces for literal JSON braces).
func newFStringPrompt(template string, inputVars []string) prompts.PromptTemplate {
	p := prompts.NewPromptTemplate(template, inputVars)
	p.TemplateFormat = prompts.TemplateFormatFString
	return p
}

// systemPrompt renders the generation system prompt for the variant.
func systemPrompt(variant Variant, context string) (string, error) {
	if variant == VariantPersona {
		return personaPrompt.Format(map[string]any{"context": context})
	}
	return strictPrompt.Format(map[string]any{"context": context})
}

// renderHistory formats turns for prompt embedding.
func renderHistory(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return "(no prior conversation)"
	}
	var b strings.Builder
	for _, turn := range turns {
		if turn.Role == models.RoleAI {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
