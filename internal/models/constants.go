package models

const (
	// DefaultLanguage is used whenever a request carries an unrecognized
	// language code.
	DefaultLanguage = "en"

	ChatSystemPrompt    = "You are a retrieval-augmented assistant. Prefer the provided context. Format responses in markdown."
	SummarySystemPrompt = "You are a document summarization expert. Create clear, structured summaries."
	QuizSystemPrompt    = "You are a quiz generator. Return ONLY valid JSON arrays, no markdown, no extra text."
)

// LangDirectives maps a language code to the instruction appended to every
// prompt. Codes outside this map fall back to DefaultLanguage.
var LangDirectives = map[string]string{
	"en": "Answer in English.",
	"hi": "हिंदी में जवाब दें।",
	"es": "Responde en español.",
	"fr": "Répondez en français.",
	"de": "Antworten Sie auf Deutsch.",
	"zh": "用中文回答。",
}

var (
	ChatPromptTemplate = `You are a helpful assistant. Use the provided context from the uploaded document to answer the user's question.

Context:
%s

Question: %s

%s

Format your answer using markdown:
- Use **bold** for important terms
- Use bullet points for lists
- Use code blocks for technical content
- Use headers (##) if needed for organization`

	SummaryPromptTemplate = `Based on the following document content, provide a comprehensive summary:

Document Content:
%s

%s

Provide a well-structured summary that includes:
1. **Main Topic**: What is this document about?
2. **Key Points**: List the main ideas (use bullet points)
3. **Important Details**: Any crucial information
4. **Conclusion**: Brief takeaway`

	QuizPromptTemplate = `Based on the following document content, generate %d multiple-choice questions to test understanding.

Document Content:
%s

%s

IMPORTANT: Return ONLY a valid JSON array with this exact format, no other text:
[
  {
    "question": "Question text here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctIndex": 0,
    "explanation": "Brief explanation of correct answer"
  }
]

Generate %d diverse questions covering different parts of the document.`
)

// LangDirective resolves a language code, falling back to English.
func LangDirective(code string) string {
	if d, ok := LangDirectives[code]; ok {
		return d
	}
	return LangDirectives[DefaultLanguage]
}
