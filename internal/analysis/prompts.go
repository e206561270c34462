package analysis

import (
	"fmt"
	"strings"
)

// Kind names what was asked of the model.
type Kind string

const (
	KindSummary   Kind = "summary"
	KindKeyPoints Kind = "key_points"
	KindTopics    Kind = "topics"
	KindSentiment Kind = "sentiment"
	KindQuestion  Kind = "question"
	KindTopic     Kind = "topic"
)

var analysisPrompts = map[Kind]string{
	KindSummary:   "Summarize this video transcript in 3-5 clear bullet points",
	KindKeyPoints: "Extract the key points from this video",
	KindTopics:    "List the main topics discussed in this video",
	KindSentiment: "Analyze the sentiment and tone of this video",
}

// ParseKind accepts the one-shot analysis kinds. Empty means summary.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return KindSummary, nil
	}
	if _, ok := analysisPrompts[k]; !ok {
		return "", fmt.Errorf("%w: unknown analysis type %q (summary, key_points, topics, sentiment)", ErrInvalidRequest, raw)
	}
	return k, nil
}

func analysisPrompt(kind Kind, title, text string) string {
	return fmt.Sprintf("%s:\n\nTitle: %s\n\n%s", analysisPrompts[kind], title, text)
}

func chatInstruction(title, videoID, text string) string {
	return fmt.Sprintf(`You are a helpful AI assistant analyzing a YouTube video transcript.

Video Title: %s
Video ID: %s

TRANSCRIPT:
%s

Your role:
- Answer questions about the video content based ONLY on the transcript provided
- Provide clear, accurate, and helpful responses
- If asked about something not in the transcript, politely say it's not mentioned
- You can summarize, explain concepts, find specific topics, and answer questions
- Support questions in multiple languages (Bangla, English, Hindi)`, title, videoID, text)
}

func topicQuestion(topic string) string {
	return fmt.Sprintf("What does the video say about '%s'? Please provide relevant quotes and explanation.", topic)
}
