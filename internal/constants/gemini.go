package constants

import "time"

// Gemini 字幕问答
const (
	GeminiEndpoint      = "https://generativelanguage.googleapis.com"
	GeminiDefaultModel  = "gemini-1.5-flash"
	GeminiFallbackModel = "gemini-1.5-flash-8b"

	// GeminiMaxTranscriptChars caps the transcript text sent as context.
	GeminiMaxTranscriptChars = 400_000
	// GeminiMaxHistoryTurns caps the prior Q&A turns replayed on each ask.
	GeminiMaxHistoryTurns = 20

	GeminiMaxAttempts    = 3
	GeminiRetryDelay     = time.Second
	GeminiMaxRetryDelay  = 8 * time.Second
	GeminiRequestTimeout = 90 * time.Second
)
