package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"sprintlms/backend/config"
	"sprintlms/backend/models"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// ErrAIUnavailable is returned when the OpenAI integration is not configured.
var ErrAIUnavailable = errors.New("openai integration is not configured")

// chunkSize is the character boundary for splitting oversized source text,
// roughly 25k tokens per chunk.
const (
	chunkSize          = 100000
	chunkedInputCutoff = 200000
)

// ContentBlock is one unit of structured lesson content in Editor.js shape:
// a header with a level, a paragraph, a list with a style and items, or a
// quote with text and caption.
type ContentBlock struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// LessonContent is the full AI-generated lesson document.
type LessonContent struct {
	CleanTitle      string         `json:"clean_title"`
	ShortSummary    string         `json:"short_summary"`
	FullDescription string         `json:"full_description"`
	ContentBlocks   []ContentBlock `json:"content_blocks"`
	Outcomes        []string       `json:"outcomes"`
	CoachActions    []string       `json:"coach_actions"`
}

// AIGenerator builds prompts from lesson material, calls the completion API and
// parses the reply into quiz questions or structured lesson content. Construction
// fails without credentials; handlers get a nil generator and report the feature
// as unavailable instead of checking ambient state.
type AIGenerator struct {
	client    *openai.Client
	logger    *log.Logger
	model     string
	quizModel string
}

func NewAIGenerator(cfg *config.Config, logger *log.Logger) (*AIGenerator, error) {
	if cfg.OpenAIKey == "" {
		return nil, ErrAIUnavailable
	}

	return &AIGenerator{
		client:    openai.NewClient(cfg.OpenAIKey),
		logger:    logger,
		model:     cfg.OpenAIModel,
		quizModel: cfg.AIQuizModel,
	}, nil
}

// GenerateQuizQuestions produces numQuestions multiple-choice questions from the
// lesson's text. Per-item validation mirrors the CSV parser: missing text or
// options A/B drops the item, an out-of-range answer letter becomes "A".
func (g *AIGenerator) GenerateQuizQuestions(ctx context.Context, lesson *models.Lesson, numQuestions int) ([]ParsedQuestion, error) {
	var parts []string
	if lesson.Title != "" {
		parts = append(parts, "Lesson Title: "+lesson.Title)
	}
	if lesson.Description != "" {
		parts = append(parts, "Description: "+lesson.Description)
	}
	if lesson.Transcription != "" {
		transcription := lesson.Transcription
		if len(transcription) > 2000 {
			transcription = transcription[:2000]
		}
		parts = append(parts, "Transcription: "+transcription)
	}
	if lesson.AIFullDescription != "" {
		parts = append(parts, "Full Description: "+lesson.AIFullDescription)
	}

	if len(parts) == 0 {
		return nil, errors.New("lesson does not have enough content for AI generation")
	}

	prompt := fmt.Sprintf(`Based on the following lesson content, generate %d multiple-choice quiz questions.

Lesson Content:
%s

Generate %d quiz questions with the following format:
- Each question should test understanding of key concepts from the lesson
- Each question should have 4 options (A, B, C, D)
- One option should be clearly correct
- The other options should be plausible but incorrect
- Questions should vary in difficulty

Return the questions in JSON format:
{
  "questions": [
    {
      "question": "Question text here",
      "option_a": "Option A text",
      "option_b": "Option B text",
      "option_c": "Option C text",
      "option_d": "Option D text",
      "correct_answer": "A"
    }
  ]
}

Only return valid JSON, no additional text.`, numQuestions, strings.Join(parts, "\n\n"), numQuestions)

	reply, err := g.complete(ctx, g.quizModel,
		"You are a helpful assistant that creates educational quiz questions. Always return valid JSON only.",
		prompt, 2000)
	if err != nil {
		return nil, fmt.Errorf("ai generation failed: %w", err)
	}

	var payload struct {
		Questions []struct {
			Question      string `json:"question"`
			OptionA       string `json:"option_a"`
			OptionB       string `json:"option_b"`
			OptionC       string `json:"option_c"`
			OptionD       string `json:"option_d"`
			CorrectAnswer string `json:"correct_answer"`
		} `json:"questions"`
	}
	if err := decodeJSONReply(reply, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse AI response as JSON: %w", err)
	}

	var questions []ParsedQuestion
	for i, q := range payload.Questions {
		text := strings.TrimSpace(q.Question)
		optionA := strings.TrimSpace(q.OptionA)
		optionB := strings.TrimSpace(q.OptionB)
		if text == "" || optionA == "" || optionB == "" {
			continue
		}

		questions = append(questions, ParsedQuestion{
			Text:          text,
			OptionA:       optionA,
			OptionB:       optionB,
			OptionC:       strings.TrimSpace(q.OptionC),
			OptionD:       strings.TrimSpace(q.OptionD),
			CorrectOption: NormalizeCorrectOption(q.CorrectAnswer),
			Order:         i + 1,
		})
	}

	return questions, nil
}

// GenerateLessonContent builds a structured lesson document from extracted source
// text. Model tier and token ceiling follow the estimated input size in discrete
// bands; text past the chunking cutoff is processed chunk by chunk.
func (g *AIGenerator) GenerateLessonContent(ctx context.Context, sourceText, courseName, moduleName, suggestedTitle string) (*LessonContent, error) {
	contentLength := len(sourceText)
	estimatedTokens := contentLength / 4

	model := g.quizModel
	maxTokens := 4000
	switch {
	case estimatedTokens > 50000:
		model = g.model
		maxTokens = 16000
	case estimatedTokens > 20000:
		maxTokens = 8000
	}

	if contentLength > chunkedInputCutoff {
		return g.generateChunkedContent(ctx, sourceText, courseName, moduleName, suggestedTitle, model, maxTokens)
	}

	titleLine := ""
	if suggestedTitle != "" {
		titleLine = "Suggested Title: " + suggestedTitle + "\n"
	}

	prompt := fmt.Sprintf(`You are an expert course content creator. Given the following source content from a course module, create a COMPREHENSIVE and DETAILED structured lesson.

Requirements:
1. A clear, engaging lesson title (max 200 characters)
2. A short summary (1-2 sentences, max 300 characters)
3. A full description (3-5 paragraphs, comprehensive overview)
4. Structured content blocks in Editor.js format:
   - Use H2 headers for major topics and H3 headers for subsections
   - Include detailed paragraphs explaining concepts thoroughly
   - Use lists (bulleted and numbered) to break down information
   - Use quotes for important concepts, definitions, or key takeaways
   - Cover ALL major topics from the source
5. Learning outcomes (5-10 bullet points covering all major topics)
6. AI coach action suggestions (4-6 suggestions)

Course: %s
Module: %s
%sSource Length: %d characters (~%d tokens)

Source Content:
%s

Return the response as a JSON object with this exact structure:
{
  "clean_title": "Lesson title here",
  "short_summary": "Brief summary here",
  "full_description": "Comprehensive full description here",
  "content_blocks": [
    {"type": "header", "data": {"text": "Major Section Title", "level": 2}},
    {"type": "paragraph", "data": {"text": "Detailed paragraph..."}},
    {"type": "list", "data": {"style": "unordered", "items": ["Point 1", "Point 2"]}},
    {"type": "quote", "data": {"text": "Important concept", "caption": "Source or context"}}
  ],
  "outcomes": ["Outcome 1", "Outcome 2"],
  "coach_actions": ["Action 1", "Action 2"]
}

Only return valid JSON, no additional text or markdown formatting.`,
		courseName, moduleName, titleLine, contentLength, estimatedTokens, sourceText)

	reply, err := g.complete(ctx, model,
		"You are an expert educational content creator specializing in comprehensive course content. Always return valid JSON only, no markdown formatting.",
		prompt, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	var content LessonContent
	if err := decodeJSONReply(reply, &content); err != nil {
		return nil, fmt.Errorf("failed to parse AI response as JSON: %w", err)
	}

	if content.CleanTitle == "" {
		content.CleanTitle = "Untitled Lesson"
	}
	normalizeContent(&content)

	return &content, nil
}

// generateChunkedContent processes oversized source text in fixed-size chunks,
// one sequential call per chunk, then a final summarization call over the
// per-chunk notes. A failed chunk is logged and skipped.
func (g *AIGenerator) generateChunkedContent(ctx context.Context, sourceText, courseName, moduleName, suggestedTitle, model string, maxTokens int) (*LessonContent, error) {
	var chunks []string
	for i := 0; i < len(sourceText); i += chunkSize {
		end := i + chunkSize
		if end > len(sourceText) {
			end = len(sourceText)
		}
		chunks = append(chunks, sourceText[i:end])
	}

	perChunkTokens := maxTokens / len(chunks)

	var allBlocks []ContentBlock
	var summaryNotes []string
	seenOutcomes := map[string]bool{}
	var outcomes []string

	for i, chunk := range chunks {
		prompt := fmt.Sprintf(`Extract and structure content from this section of a document (part %d of %d):

Document Section:
%s

Create structured content blocks covering ALL topics in this section. Return JSON:
{
  "content_blocks": [
    {"type": "header", "data": {"text": "Section Title", "level": 2}},
    {"type": "paragraph", "data": {"text": "Detailed content..."}}
  ],
  "outcomes": ["Outcome 1", "Outcome 2"],
  "summary_note": "Brief note about this section"
}

Only return JSON.`, i+1, len(chunks), chunk)

		reply, err := g.complete(ctx, model,
			"Extract and structure document content. Return JSON only.", prompt, perChunkTokens)
		if err != nil {
			g.logger.Printf("chunk %d/%d failed: %v", i+1, len(chunks), err)
			continue
		}

		var chunkData struct {
			ContentBlocks []ContentBlock `json:"content_blocks"`
			Outcomes      []string       `json:"outcomes"`
			SummaryNote   string         `json:"summary_note"`
		}
		if err := decodeJSONReply(reply, &chunkData); err != nil {
			g.logger.Printf("chunk %d/%d unparseable: %v", i+1, len(chunks), err)
			continue
		}

		allBlocks = append(allBlocks, chunkData.ContentBlocks...)
		for _, outcome := range chunkData.Outcomes {
			if outcome != "" && !seenOutcomes[outcome] {
				seenOutcomes[outcome] = true
				outcomes = append(outcomes, outcome)
			}
		}
		if chunkData.SummaryNote != "" {
			summaryNotes = append(summaryNotes, chunkData.SummaryNote)
		}
	}

	if len(outcomes) > 15 {
		outcomes = outcomes[:15]
	}

	title := suggestedTitle
	if title == "" {
		title = "Untitled Lesson"
	}
	summary := fmt.Sprintf("Comprehensive lesson covering %d major sections", len(chunks))
	description := fmt.Sprintf("This lesson covers extensive material organized into %d major sections.", len(chunks))

	notes := make([]string, 0, len(summaryNotes))
	for _, note := range summaryNotes {
		notes = append(notes, "- "+note)
	}

	finalPrompt := fmt.Sprintf(`Create a comprehensive lesson summary and description from these section summaries:

Course: %s
Module: %s
Suggested Title: %s

Section Summaries:
%s

Return JSON:
{
  "clean_title": "Comprehensive lesson title",
  "short_summary": "Brief summary",
  "full_description": "Comprehensive 3-5 paragraph description covering all sections"
}`, courseName, moduleName, title, strings.Join(notes, "\n"))

	if reply, err := g.complete(ctx, model,
		"Create comprehensive lesson summaries. Return JSON only.", finalPrompt, 2000); err == nil {
		var finalData struct {
			CleanTitle      string `json:"clean_title"`
			ShortSummary    string `json:"short_summary"`
			FullDescription string `json:"full_description"`
		}
		if decodeJSONReply(reply, &finalData) == nil {
			if finalData.CleanTitle != "" {
				title = finalData.CleanTitle
			}
			summary = finalData.ShortSummary
			description = finalData.FullDescription
		}
	} else {
		g.logger.Printf("final summary call failed: %v", err)
	}

	return &LessonContent{
		CleanTitle:      title,
		ShortSummary:    summary,
		FullDescription: description,
		ContentBlocks:   allBlocks,
		Outcomes:        outcomes,
		CoachActions: []string{
			"Summarize key concepts from this lesson",
			"Create a study guide from this content",
			"Generate quiz questions from the material",
			"Break down complex topics into simpler explanations",
			"Create action items from the lesson content",
		},
	}, nil
}

func (g *AIGenerator) complete(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var embeddedJSONRe = regexp.MustCompile(`(?s)\{.*\}`)

// CleanAIResponse strips a wrapping markdown code fence (and a leading language
// tag) from a model reply.
func CleanAIResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "```", 3)
		if len(parts) > 1 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = strings.TrimSpace(s[:idx])
		}
	}
	return s
}

// decodeJSONReply parses a model reply, tolerating fence wrapping; when the
// cleaned payload still fails to parse, it falls back to the first embedded
// brace-delimited object.
func decodeJSONReply(reply string, v any) error {
	cleaned := CleanAIResponse(reply)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	if match := embeddedJSONRe.FindString(cleaned); match != "" {
		return json.Unmarshal([]byte(match), v)
	}
	return errors.New("no JSON object found in reply")
}

func normalizeContent(content *LessonContent) {
	if content.ContentBlocks == nil {
		content.ContentBlocks = []ContentBlock{}
	}
	if content.Outcomes == nil {
		content.Outcomes = []string{}
	}
	if content.CoachActions == nil {
		content.CoachActions = []string{}
	}
}

// ToEditorJS wraps content blocks into a full Editor.js document with generated
// block ids.
func ToEditorJS(blocks []ContentBlock) map[string]any {
	wrapped := make([]map[string]any, 0, len(blocks))
	for _, block := range blocks {
		blockType := block.Type
		if blockType == "" {
			blockType = "paragraph"
		}
		data := block.Data
		if data == nil {
			data = map[string]any{}
		}
		wrapped = append(wrapped, map[string]any{
			"id":   uuid.NewString(),
			"type": blockType,
			"data": data,
		})
	}

	return map[string]any{
		"time":    time.Now().UnixMilli(),
		"blocks":  wrapped,
		"version": "2.28.2",
	}
}

// EncodeEditorJS renders content blocks as the JSON string stored on a lesson.
func EncodeEditorJS(blocks []ContentBlock) (string, error) {
	doc, err := json.Marshal(ToEditorJS(blocks))
	if err != nil {
		return "", err
	}
	return string(doc), nil
}
