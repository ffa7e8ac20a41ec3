// Package core holds the data model shared by every retrieval, agent and
// orchestration package, per SPEC_FULL.md §3, so that C2/C3/C4/C5/C6/C7 and
// the orchestrator all speak the same vocabulary without importing each
// other.
package core

import "fmt"

// ChunkID returns the globally-unique (within a namespace) identifier for
// a chunk, per spec.md §3: "{file_id}#chunk#{ordinal}".
func ChunkID(fileID string, ordinal int) string {
	return fmt.Sprintf("%s#chunk#%d", fileID, ordinal)
}

// Chunk is an immutable post-ingestion unit of retrievable text.
type Chunk struct {
	ChunkID       string
	FileID        string
	Ordinal       int
	Text          string
	PageNumber    int
	TokenEstimate int
}

// Source identifies which retriever produced a RetrievalHit.
type Source string

const (
	SourceBM25   Source = "bm25"
	SourceVector Source = "vector"
	SourceHybrid Source = "hybrid"
)

// RetrievalHit is the common result shape across C2, C3 and C4, per
// spec.md §3.
type RetrievalHit struct {
	ChunkID     string
	Text        string
	PageNumber  int
	FileID      string
	Ordinal     int
	Score       float64
	Rank        int
	Source      Source
	BM25Score   *float64
	VectorScore *float64
	BM25Rank    *int
	VectorRank  *int
	RRFScore    *float64
	// NeedsExpansion is a SPEC_FULL.md/C6 annotation: true when C5's
	// ShouldExpandContext judged this chunk truncated. The navigator
	// never mutates Text itself.
	NeedsExpansion bool
}

// QuestionType classifies the intent of an incoming question, per
// spec.md §3.
type QuestionType string

const (
	QuestionFact     QuestionType = "fact"
	QuestionAnalysis QuestionType = "analysis"
	QuestionGuidance QuestionType = "guidance"
)

// Difficulty estimates how hard a question is to answer, per spec.md §3.
type Difficulty string

const (
	DifficultySimple  Difficulty = "simple"
	DifficultyMedium  Difficulty = "medium"
	DifficultyComplex Difficulty = "complex"
)

// QueryAnalysis is C5.AnalyzeQuery's result, per spec.md §3.
type QueryAnalysis struct {
	QuestionType QuestionType
	Keywords     []string
	Difficulty   Difficulty
	Category     string
	// Entities is a SPEC_FULL.md supplemental field for named entities.
	// routing.AnalyzeQuery does not populate it.
	Entities []string
}

// RoutingDecision is C5.RouteDocuments's result, per spec.md §3.
type RoutingDecision struct {
	SelectedIndices []int
	Reasoning       string
	Confidence      float64
	ShouldExpand    bool
}

// CitationCheck enumerates C7's citation-check outcomes, per spec.md §3.
type CitationCheck string

const (
	CitationPassed     CitationCheck = "passed"
	CitationFailed     CitationCheck = "failed"
	CitationNone       CitationCheck = "no_citations"
	CitationSkipped    CitationCheck = "skipped"
	CitationCheckError CitationCheck = "error"
)

// LLMVerificationStatus enumerates C7's LLM cross-check outcomes, per
// spec.md §3.
type LLMVerificationStatus string

const (
	LLMVerificationCompleted LLMVerificationStatus = "completed"
	LLMVerificationFailed    LLMVerificationStatus = "failed"
	LLMVerificationSkipped   LLMVerificationStatus = "skipped"
	LLMVerificationError     LLMVerificationStatus = "error"
)

// Verification is C7's result, per spec.md §3.
type Verification struct {
	IsValid          bool
	Confidence       float64
	Reasoning        string
	CitationCheck    CitationCheck
	InvalidCitations []string
	LLMVerification  LLMVerificationStatus
}

// AnswerMode distinguishes a retrieval-grounded answer from a bare LLM
// fallback, per spec.md §3.
type AnswerMode string

const (
	ModeRAG     AnswerMode = "rag"
	ModePureLLM AnswerMode = "pure_llm"
)

// AnswerRecord is the Orchestrator's top-level result, per spec.md §3 plus
// SPEC_FULL.md's supplemental timing breakdown.
type AnswerRecord struct {
	Question         string
	Answer           string
	Reasoning        string
	RelevantPages    []int
	Confidence       float64
	ProcessingTimeMs int64
	SourceChunks     []RetrievalHit
	Verification     Verification
	Mode             AnswerMode
	// ContextDocsCount and GenerationTimeMs are SPEC_FULL.md supplements:
	// the number of chunks the final answer was generated from, and how
	// long generation alone (excluding retrieval/navigation) took.
	ContextDocsCount int
	GenerationTimeMs int64
}

// ScenarioConfig is a SPEC_FULL.md supplement: the per-scenario
// configuration referenced by C5 (keyword library, prompts) and C7
// (citation pattern), externalized so scenarios can differ without code
// changes. The rule-based fallback's trigger words are not part of it.
type ScenarioConfig struct {
	ScenarioID             string
	KeywordLibrary         map[string][]string
	QuestionAnalysisPrompt string
	DocumentRoutingPrompt  string
	AnswerGenerationPrompt string
	SystemContent          string
	CitationPatterns       []string
}
