package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const summarizeSystem = `You are a research assistant that creates concise, informative summaries.
{{.language_instruction}}
Your task is to summarize the provided content in exactly one paragraph.
Focus on preserving key facts, findings, and important information.
Keep the summary clear and informative.`

const summarizeHuman = `Please summarize the following content from "{{.title}}" in one paragraph:

{{.content}}`

const mainSummarySystem = `You are a research analyst creating comprehensive summaries.
{{.language_instruction}}
Your task is to synthesize multiple source summaries into a unified, coherent summary.
Focus on the main findings and insights about the topic.
Use citation numbers [1], [2], etc. when referencing specific sources.`

const mainSummaryHuman = `Research Topic: {{.topic}}

Source Summaries:
{{.summaries}}

Create a comprehensive summary (2-3 paragraphs) that synthesizes the key information from all sources about this topic. Include citation numbers when referencing specific sources.`

var keyPointsSystem = fmt.Sprintf(`You are a research analyst identifying key points.
{{.language_instruction}}
Your task is to extract the most important points from the research summaries.
Each point should be a complete, standalone statement.
Include citation numbers [1], [2], etc. when a point comes from a specific source.
Return exactly %d-%d key points, one per line, starting with a bullet point (•).`, research.KeyPointsMin, research.KeyPointsMax)

var keyPointsHuman = fmt.Sprintf(`Research Topic: {{.topic}}

Source Summaries:
{{.summaries}}

Extract %d-%d key points from these sources. Each point should be on its own line starting with •`, research.KeyPointsMin, research.KeyPointsMax)

const comparisonSystem = `You are a research analyst comparing multiple sources.
{{.language_instruction}}
Your task is to compare and contrast the different sources.
Identify areas of agreement, disagreement, and unique perspectives.
Use citation numbers [1], [2], etc. when referencing specific sources.`

const comparisonHuman = `Research Topic: {{.topic}}

Source Summaries:
{{.summaries}}

Write a comparison section (1-2 paragraphs) that analyzes how these sources relate to each other. Highlight agreements, disagreements, and unique contributions from each source.`

var (
	summarizePrompt   = chatPrompt(summarizeSystem, summarizeHuman, "title", "content")
	mainSummaryPrompt = chatPrompt(mainSummarySystem, mainSummaryHuman, "topic", "summaries")
	keyPointsPrompt   = chatPrompt(keyPointsSystem, keyPointsHuman, "topic", "summaries")
	comparisonPrompt  = chatPrompt(comparisonSystem, comparisonHuman, "topic", "summaries")
)

func chatPrompt(system, human string, vars ...string) prompts.ChatPromptTemplate {
	return prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(system, []string{"language_instruction"}),
		prompts.NewHumanMessagePromptTemplate(human, vars),
	})
}

// render formats a chat prompt into the message list GenerateContent takes.
func render(p prompts.ChatPromptTemplate, values map[string]any) ([]llms.MessageContent, error) {
	msgs, err := p.FormatMessages(values)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(m.GetType(), m.GetContent()))
	}
	return out, nil
}
