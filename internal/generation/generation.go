// Package generation builds the task-specific prompts (chat, summary, quiz)
// and invokes the generative model.
package generation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"docuchat/internal/apperr"
	"docuchat/internal/models"
	"docuchat/internal/retrieval"
	"docuchat/internal/vectorstore"
)

const (
	chatTopK      = 3
	summarySample = 10
	quizSample    = 8

	summaryMaxChars = 8000
	quizMaxChars    = 6000

	chatTemperature    = 0.3
	summaryTemperature = 0.4
	quizTemperature    = 0.5

	defaultQuizQuestions = 5

	noAnswerPlaceholder  = "No answer generated."
	noSummaryPlaceholder = "Unable to generate summary."
)

// ChatModel is the slice of the generative client the orchestrator needs.
// *openai.LLM satisfies it.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Retriever supplies scored matches for chat and sampled context for
// summary and quiz.
type Retriever interface {
	Retrieve(ctx context.Context, namespace, question string, topK int) ([]vectorstore.Match, error)
	SampleContext(ctx context.Context, namespace string, sampleSize int) (string, error)
}

// TaskModels names the model used per task.
type TaskModels struct {
	Chat    string
	Summary string
	Quiz    string
}

type Orchestrator struct {
	llm       ChatModel
	retriever Retriever
	models    TaskModels
}

func NewOrchestrator(llm ChatModel, retriever Retriever, taskModels TaskModels) *Orchestrator {
	return &Orchestrator{llm: llm, retriever: retriever, models: taskModels}
}

// Answer is a grounded chat response with the matches it was built from.
type Answer struct {
	Answer  string              `json:"answer"`
	Sources []vectorstore.Match `json:"sources"`
}

// AnswerQuestion retrieves the question's nearest chunks and answers from
// them in the requested language.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, namespace, question, language string) (*Answer, error) {
	matches, err := o.retriever.Retrieve(ctx, namespace, question, chatTopK)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(models.ChatPromptTemplate,
		retrieval.BuildContext(matches), question, models.LangDirective(language))
	content, err := o.generate(ctx, o.models.Chat, models.ChatSystemPrompt, prompt, chatTemperature)
	if err != nil {
		return nil, err
	}
	if content == "" {
		content = noAnswerPlaceholder
	}
	if matches == nil {
		matches = []vectorstore.Match{}
	}
	return &Answer{Answer: content, Sources: matches}, nil
}

// GenerateSummary summarizes a sampled slice of the document. The context
// is hard-capped after concatenation so prompt size stays bounded no matter
// how many chunks were sampled.
func (o *Orchestrator) GenerateSummary(ctx context.Context, namespace, language string) (string, error) {
	context, err := o.retriever.SampleContext(ctx, namespace, summarySample)
	if err != nil {
		return "", err
	}
	context = truncateRunes(context, summaryMaxChars)

	prompt := fmt.Sprintf(models.SummaryPromptTemplate, context, models.LangDirective(language))
	content, err := o.generate(ctx, o.models.Summary, models.SummarySystemPrompt, prompt, summaryTemperature)
	if err != nil {
		return "", err
	}
	if content == "" {
		content = noSummaryPlaceholder
	}
	return content, nil
}

// GenerateQuiz produces numQuestions multiple-choice questions from a
// sampled slice of the document. A model response that cannot be decoded
// yields an empty slice plus a ParseError, never a failed request.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, namespace, language string, numQuestions int) ([]models.QuizQuestion, error) {
	if numQuestions <= 0 {
		numQuestions = defaultQuizQuestions
	}
	context, err := o.retriever.SampleContext(ctx, namespace, quizSample)
	if err != nil {
		return nil, err
	}
	context = truncateRunes(context, quizMaxChars)

	prompt := fmt.Sprintf(models.QuizPromptTemplate,
		numQuestions, context, models.LangDirective(language), numQuestions)
	content, err := o.generate(ctx, o.models.Quiz, models.QuizSystemPrompt, prompt, quizTemperature)
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuiz(content)
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("quiz parse failed")
		return []models.QuizQuestion{}, err
	}
	return questions, nil
}

func (o *Orchestrator) generate(ctx context.Context, model, system, prompt string, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", &apperr.UpstreamError{Op: "generation", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
