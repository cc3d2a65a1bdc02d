package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/signal"
)

const chatInstruction = "You are a friendly and insightful assistant specializing in sleep psychology. " +
	"Your goal is to engage the user in a conversation. At the beginning of some user messages, you will " +
	"receive a context tag like '[CONTEXT: sentiment=Anxious, pattern=fatigue, theme=Work, cognitive_load=78]'. " +
	"Use this information to tailor your response to be more empathetic and relevant to the user's detected " +
	"state, but do NOT mention the context tag or the analysis directly. For example, if the theme is 'Work' " +
	"and load is high, you might say 'It sounds like that situation at work is really weighing on you.' " +
	"Answer in plain text suitable for reading aloud."

// SmartPromptCount is the number of conversation starters requested.
const SmartPromptCount = 3

// ContextTag renders the reply context as the tag prefixed to a chat message.
func ContextTag(rc model.ReplyContext) string {
	return fmt.Sprintf("[CONTEXT: sentiment=%s, pattern=%s, theme=%s, cognitive_load=%d]",
		rc.Sentiment, rc.Pattern, rc.Theme, rc.CognitiveLoad)
}

// ClassifySentiment asks for one word of the sentiment vocabulary.
func (c *Client) ClassifySentiment(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Analyze the sentiment of the following text. Respond with only a single descriptive word from this list: %s. Text: %q",
		strings.Join(signal.Sentiments, ", "), text)
	out, err := c.generateText(ctx, c.cfg.ChatModel, prompt)
	return strings.TrimSpace(out), err
}

// ClassifyTheme asks for a one or two word topic label.
func (c *Client) ClassifyTheme(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("What is the main theme of this text? Respond with only one or two words (e.g., Work, Family, Health, Social, Finances, Self-reflection, General). Text: %q", text)
	out, err := c.generateText(ctx, c.cfg.ChatModel, prompt)
	return strings.Trim(strings.TrimSpace(out), ".\"'"), err
}

// Reply continues the chat. The exchange is added to the chat history only on success.
func (c *Client) Reply(ctx context.Context, rc model.ReplyContext, text string) (string, error) {
	msg := userContent(ContextTag(rc) + " " + text)

	c.mu.Lock()
	contents := append(append([]content(nil), c.history...), msg)
	c.mu.Unlock()

	out, err := c.generate(ctx, c.cfg.ChatModel, generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: chatInstruction}}},
		Contents:          contents,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)

	c.mu.Lock()
	c.history = append(c.history, msg, content{Role: "model", Parts: []part{{Text: out}}})
	c.mu.Unlock()
	return out, nil
}

// ResetChat forgets the chat history.
func (c *Client) ResetChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// Suggest asks for one gentle question based on the recent conversation lines.
func (c *Client) Suggest(ctx context.Context, recent string) (string, error) {
	prompt := "A user is chatting with a wellness bot. Their cognitive load has suddenly increased. " +
		"Based on their last few messages, generate a single, gentle, open-ended question to help them explore " +
		"what might be on their mind. Do not refer to the analysis. The question should be empathetic and " +
		"encouraging. Respond with ONLY the question itself.\n\nRecent conversation:\n" + recent
	out, err := c.generateText(ctx, c.cfg.ChatModel, prompt)
	return strings.TrimSpace(out), err
}

// SmartPrompts asks for short conversation starters. Identical concurrent
// requests share one call, which is not cancelled by any single caller.
func (c *Client) SmartPrompts(ctx context.Context, timeOfDay string, last *model.AnalysisResult) ([]string, error) {
	state := "The user is just starting the session."
	key := timeOfDay
	if last != nil {
		state = fmt.Sprintf("The user's last detected sentiment was '%s' on the topic of '%s'. Their cognitive load was %d/100.",
			last.Sentiment, last.Theme, last.CognitiveLoad)
		key += "|" + last.ID
	}
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		prompt := fmt.Sprintf(`You are a creative assistant for a wellness app. Your task is to generate %d short, gentle, and open-ended conversation starters as questions.
Context:
- It is currently %s.
- %s
- The user is talking to a supportive AI assistant about their well-being and sleep.
- The prompts should encourage reflection and be under 15 words.
Return the response as a JSON array of %d strings.`, SmartPromptCount, timeOfDay, state, SmartPromptCount)
		out, err := c.generate(shared, c.cfg.ChatModel, generateRequest{
			Contents: []content{userContent(prompt)},
			GenerationConfig: &generationConfig{
				ResponseMimeType: "application/json",
				ResponseSchema:   map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
			},
		})
		if err != nil {
			return nil, err
		}
		return parsePromptList(out)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func parsePromptList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "`\n ")
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("gemini: smart prompts: %w", err)
	}
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gemini: smart prompts: empty list")
	}
	if len(out) > SmartPromptCount {
		out = out[:SmartPromptCount]
	}
	return out, nil
}

// Transcript renders messages as "User: ..." and "Assistant: ..." lines.
func Transcript(messages []model.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		who := "Assistant"
		if m.Author == model.AuthorUser {
			who = "User"
		}
		lines = append(lines, who+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}

// Summary asks for a short bulleted summary of the session.
func (c *Client) Summary(ctx context.Context, messages []model.Message) (string, error) {
	prompt := `You are a helpful wellness analyst. Read the following conversation transcript and provide a concise, bulleted summary (3-4 points) of the main topics discussed and the key emotional turning points. Focus on the user's journey. Start your response with "Here is a quick summary of your session:". Use "* " for the bullet points.

Transcript:
` + Transcript(messages)
	out, err := c.generateText(ctx, c.cfg.ChatModel, prompt)
	return strings.TrimSpace(out), err
}

// Plan asks for the final analysis and a sleep plan addressing the hotspot themes.
func (c *Client) Plan(ctx context.Context, messages []model.Message, hotspotLines []string) (string, error) {
	hotspots := strings.Join(hotspotLines, "\n")
	if hotspots == "" {
		hotspots = "No specific themes were detected."
	}
	prompt := fmt.Sprintf(`You are a helpful and empathetic wellness coach specializing in sleep science. Based on the following data from a user's session, provide a comprehensive final analysis and a personalized, actionable sleep plan.
Session Data:
1. Full Conversation Transcript:
%s

2. Thematic Cognitive Hotspots:
These are the topics that correlated with the highest cognitive load:
%s

Your Task: The response should have two sections:
1. Final Analysis: start with the heading '### Final Analysis'. Summarize the user's potential state of mind. Be gentle and insightful. Connect their words to their cognitive load and to the thematic hotspots.
2. Your Personalized Sleep Plan: start with the heading '### Your Personalized Sleep Plan'. Provide 3-5 simple, concrete, and actionable steps that directly address the highest-load themes. Frame these as gentle suggestions.
Keep the tone supportive, positive, and encouraging.`, Transcript(messages), hotspots)
	out, err := c.generateText(ctx, c.cfg.PlanModel, prompt)
	return strings.TrimSpace(out), err
}
