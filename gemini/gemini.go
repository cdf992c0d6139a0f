// Package gemini streams Gemini responses from Vertex AI.
//
// streamGenerateContent without alt=sse returns a JSON array whose elements
// arrive one at a time, with chunk boundaries that need not align with
// element boundaries. [ArrayDecoder] reassembles those elements from the
// "[{", "," and "]" line tokens. The alt=sse variant is decoded by the
// shared event-framing loop in package sse.
//
// Enum-typed fields reuse the string enums of google.golang.org/genai so
// values compare directly against genai constants.
package gemini

import (
	"strings"

	"google.golang.org/genai"
)

const (
	providerName    = "gemini"
	publisher       = "google"
	defaultLocation = "us-central1"
)

// GenerateContentResponse is one element of a streamed response, or the
// whole response of a non-streaming call.
type GenerateContentResponse struct {
	Candidates     []*Candidate    `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`
}

// Text concatenates the non-thought text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Thoughts concatenates the thought-summary parts of the first candidate.
func (r *GenerateContentResponse) Thoughts() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if p != nil && p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// FinishReason returns the first candidate's finish reason, or "" while the
// response is still streaming.
func (r *GenerateContentResponse) FinishReason() genai.FinishReason {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].FinishReason
}

type Candidate struct {
	Content           *Content           `json:"content,omitempty"`
	Index             uint32             `json:"index,omitempty"`
	FinishReason      genai.FinishReason `json:"finishReason,omitempty"`
	FinishMessage     string             `json:"finishMessage,omitempty"`
	SafetyRatings     []*SafetyRating    `json:"safetyRatings,omitempty"`
	CitationMetadata  *CitationMetadata  `json:"citationMetadata,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
	AvgLogprobs       float64            `json:"avgLogprobs,omitempty"`
	LogprobsResult    *LogprobsResult    `json:"logprobsResult,omitempty"`
}

type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts,omitempty"`
}

// Part holds one piece of content. Exactly one payload field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	ThoughtSignature []byte            `json:"thoughtSignature,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type FileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

type SafetyRating struct {
	Category         genai.HarmCategory    `json:"category,omitempty"`
	Probability      genai.HarmProbability `json:"probability,omitempty"`
	ProbabilityScore float32               `json:"probabilityScore,omitempty"`
	Severity         genai.HarmSeverity    `json:"severity,omitempty"`
	SeverityScore    float32               `json:"severityScore,omitempty"`
	Blocked          bool                  `json:"blocked,omitempty"`
}

type CitationMetadata struct {
	Citations []*Citation `json:"citations,omitempty"`
}

type Citation struct {
	StartIndex      uint32      `json:"startIndex,omitempty"`
	EndIndex        uint32      `json:"endIndex,omitempty"`
	URI             string      `json:"uri,omitempty"`
	Title           string      `json:"title,omitempty"`
	License         string      `json:"license,omitempty"`
	PublicationDate *GoogleDate `json:"publicationDate,omitempty"`
}

type GoogleDate struct {
	Year  uint32 `json:"year,omitempty"`
	Month uint32 `json:"month,omitempty"`
	Day   uint32 `json:"day,omitempty"`
}

type GroundingMetadata struct {
	WebSearchQueries  []string            `json:"webSearchQueries,omitempty"`
	RetrievalQueries  []string            `json:"retrievalQueries,omitempty"`
	SearchEntryPoint  *SearchEntryPoint   `json:"searchEntryPoint,omitempty"`
	GroundingChunks   []*GroundingChunk   `json:"groundingChunks,omitempty"`
	GroundingSupports []*GroundingSupport `json:"groundingSupports,omitempty"`
}

type SearchEntryPoint struct {
	RenderedContent string `json:"renderedContent,omitempty"`
	SDKBlob         []byte `json:"sdkBlob,omitempty"`
}

// GroundingChunk is either a web result or a retrieved context.
type GroundingChunk struct {
	Web              *GroundingChunkSource `json:"web,omitempty"`
	RetrievedContext *GroundingChunkSource `json:"retrievedContext,omitempty"`
}

type GroundingChunkSource struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

type GroundingSupport struct {
	Segment               *Segment  `json:"segment,omitempty"`
	GroundingChunkIndices []uint32  `json:"groundingChunkIndices,omitempty"`
	ConfidenceScores      []float32 `json:"confidenceScores,omitempty"`
}

type Segment struct {
	PartIndex  uint32 `json:"partIndex,omitempty"`
	StartIndex uint32 `json:"startIndex,omitempty"`
	EndIndex   uint32 `json:"endIndex,omitempty"`
	Text       string `json:"text,omitempty"`
}

// LogprobsResult holds per-token log-probabilities. Log-probabilities are
// float32 here; the candidate-level average is float64.
type LogprobsResult struct {
	TopCandidates    []*TopCandidates    `json:"topCandidates,omitempty"`
	ChosenCandidates []*LogprobCandidate `json:"chosenCandidates,omitempty"`
}

type TopCandidates struct {
	Candidates []*LogprobCandidate `json:"candidates,omitempty"`
}

type LogprobCandidate struct {
	Token          string  `json:"token,omitempty"`
	TokenID        int32   `json:"tokenId,omitempty"`
	LogProbability float32 `json:"logProbability,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount        uint32 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    uint32 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount         uint32 `json:"totalTokenCount,omitempty"`
	CachedContentTokenCount uint32 `json:"cachedContentTokenCount,omitempty"`
	ThoughtsTokenCount      uint32 `json:"thoughtsTokenCount,omitempty"`
}

type PromptFeedback struct {
	BlockReason        genai.BlockedReason `json:"blockReason,omitempty"`
	SafetyRatings      []*SafetyRating     `json:"safetyRatings,omitempty"`
	BlockReasonMessage string              `json:"blockReasonMessage,omitempty"`
}

// errorEnvelope is the body of a failed call. The inner object matches the
// SDK's APIError (code, message, status, details).
type errorEnvelope struct {
	Error *genai.APIError `json:"error"`
}
