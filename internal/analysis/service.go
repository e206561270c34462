package analysis

import (
	"context"
	"fmt"
	"strings"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/logging"
	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/transcript"

	log "github.com/sirupsen/logrus"
)

// Transcripts is the subset of *transcript.Service the analyzer reads from.
type Transcripts interface {
	Get(ctx context.Context, videoID string, opts transcript.Options) (*transcript.Result, error)
}

// Reply is a model answer about one video.
type Reply struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"video_title,omitempty"`
	Kind      Kind   `json:"type"`
	Question  string `json:"question,omitempty"`
	Text      string `json:"response"`
	Model     string `json:"model"`
	Language  string `json:"language_code"`
	Truncated bool   `json:"transcript_truncated"`
	Cached    bool   `json:"transcript_cached"`
	Attempts  int    `json:"attempts"`
	Usage     Usage  `json:"usage"`
}

// Question is one chat turn about a video. History holds the earlier turns,
// oldest first; the client keeps the conversation.
type Question struct {
	Text       string
	History    []Turn
	Title      string
	Transcript transcript.Options
}

// Analyzer loads transcripts and sends them to the model under the fetch
// retry policy.
type Analyzer struct {
	transcripts Transcripts
	gen         Generator
	fetcher     *fetch.Fetcher
	temperature float64
	maxChars    int
	maxHistory  int
}

// RetryPolicy is the fetch policy for model calls: a few exponential retries
// with Classify deciding what is worth retrying.
func RetryPolicy() fetch.Policy {
	return fetch.Policy{
		MaxAttempts:    constants.GeminiMaxAttempts,
		Delay:          constants.GeminiRetryDelay,
		Backoff:        fetch.BackoffExponential,
		MaxDelay:       constants.GeminiMaxRetryDelay,
		AttemptTimeout: constants.GeminiRequestTimeout,
		Classifier:     Classify,
	}
}

// NewAnalyzer wires the transcript source to a generator. Model calls never
// go through the proxy pool, so fetcher should be built without one.
func NewAnalyzer(transcripts Transcripts, gen Generator, fetcher *fetch.Fetcher, cfg config.GeminiConfig) *Analyzer {
	maxChars := cfg.MaxTranscriptChars
	if maxChars <= 0 {
		maxChars = constants.GeminiMaxTranscriptChars
	}
	return &Analyzer{
		transcripts: transcripts,
		gen:         gen,
		fetcher:     fetcher,
		temperature: cfg.Temperature,
		maxChars:    maxChars,
		maxHistory:  constants.GeminiMaxHistoryTurns,
	}
}

// Analyze runs a one-shot analysis of the whole transcript.
func (a *Analyzer) Analyze(ctx context.Context, videoID string, kind Kind, title string, opts transcript.Options) (*Reply, error) {
	if _, ok := analysisPrompts[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown analysis type %q", ErrInvalidRequest, kind)
	}
	src, err := a.load(ctx, videoID, title, opts)
	if err != nil {
		return nil, err
	}
	req := Request{
		Turns:       []Turn{{Role: RoleUser, Text: analysisPrompt(kind, src.title, src.text)}},
		Temperature: a.temperature,
	}
	return a.generate(ctx, src, kind, "", req)
}

// Ask answers a question using the transcript as the only context.
func (a *Analyzer) Ask(ctx context.Context, videoID string, q Question) (*Reply, error) {
	return a.ask(ctx, videoID, KindQuestion, q)
}

// FindTopic asks what the video says about topic, with quotes.
func (a *Analyzer) FindTopic(ctx context.Context, videoID, topic string, q Question) (*Reply, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	q.Text = topicQuestion(topic)
	return a.ask(ctx, videoID, KindTopic, q)
}

func (a *Analyzer) ask(ctx context.Context, videoID string, kind Kind, q Question) (*Reply, error) {
	question := strings.TrimSpace(q.Text)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	history, err := a.trimHistory(q.History)
	if err != nil {
		return nil, err
	}
	src, err := a.load(ctx, videoID, q.Title, q.Transcript)
	if err != nil {
		return nil, err
	}
	req := Request{
		System:      chatInstruction(src.title, videoID, src.text),
		Turns:       append(history, Turn{Role: RoleUser, Text: question}),
		Temperature: a.temperature,
	}
	return a.generate(ctx, src, kind, question, req)
}

// trimHistory validates roles and keeps the most recent turns, starting on a
// user turn as Gemini requires.
func (a *Analyzer) trimHistory(history []Turn) ([]Turn, error) {
	out := make([]Turn, 0, len(history))
	for i, t := range history {
		if t.Role != RoleUser && t.Role != RoleModel {
			return nil, fmt.Errorf("%w: history[%d] has role %q (user or model)", ErrInvalidRequest, i, t.Role)
		}
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) > a.maxHistory {
		out = out[len(out)-a.maxHistory:]
	}
	for len(out) > 0 && out[0].Role != RoleUser {
		out = out[1:]
	}
	return out, nil
}

type source struct {
	videoID   string
	title     string
	text      string
	truncated bool
	result    *transcript.Result
}

func (a *Analyzer) load(ctx context.Context, videoID, title string, opts transcript.Options) (*source, error) {
	res, err := a.transcripts.Get(ctx, videoID, opts)
	if err != nil {
		return nil, err
	}
	text := transcript.Render(res.Transcript.Entries, transcript.FormatPlain)
	truncated := false
	if runes := []rune(text); len(runes) > a.maxChars {
		text = string(runes[:a.maxChars])
		truncated = true
	}
	if strings.TrimSpace(title) == "" {
		title = res.Transcript.Title
	}
	return &source{videoID: videoID, title: title, text: text, truncated: truncated, result: res}, nil
}

func (a *Analyzer) generate(ctx context.Context, src *source, kind Kind, question string, req Request) (*Reply, error) {
	res := fetch.Do(ctx, a.fetcher, "gemini", func(ctx context.Context, _ proxy.Credential) (*Response, error) {
		resp, err := a.gen.Generate(ctx, req)
		if err != nil && Classify(err) == fetch.Terminal {
			return nil, fetch.MarkTerminal(err)
		}
		return resp, err
	})
	entry := logging.WithVideo(src.videoID).WithFields(log.Fields{
		"type":      string(kind),
		"attempts":  res.Attempts,
		"truncated": src.truncated,
	})
	if !res.OK() {
		monitoring.AnalysisRequests.WithLabelValues(string(kind), "error").Inc()
		entry.WithError(res.Err).Warn("transcript analysis failed")
		return nil, res.Err
	}
	monitoring.AnalysisRequests.WithLabelValues(string(kind), "ok").Inc()
	entry.WithFields(log.Fields{
		"model":           res.Value.Model,
		"prompt_tokens":   res.Value.Usage.PromptTokens,
		"response_tokens": res.Value.Usage.ResponseTokens,
		"duration_ms":     logging.DurationMS(res.Elapsed),
	}).Info("transcript analyzed")

	return &Reply{
		VideoID:   src.videoID,
		Title:     src.title,
		Kind:      kind,
		Question:  question,
		Text:      res.Value.Text,
		Model:     res.Value.Model,
		Language:  src.result.Transcript.LanguageCode,
		Truncated: src.truncated,
		Cached:    src.result.Cached,
		Attempts:  res.Attempts,
		Usage:     res.Value.Usage,
	}, nil
}
