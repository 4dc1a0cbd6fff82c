package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/llm"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// Wire payloads for the three extraction calls. Field bounds are enforced
// after decoding; the provider is not trusted to respect them.

type responseScorePayload struct {
	PrimaryEmotion string   `json:"primary_emotion"`
	Intensity      float64  `json:"intensity"`
	Confidence     float64  `json:"confidence"`
	Triggers       []string `json:"triggers"`
	Context        string   `json:"context"`
	Needs          []string `json:"needs"`
	Sentiment      float64  `json:"sentiment"`
}

type conversationSummaryPayload struct {
	DominantEmotion  string  `json:"dominant_emotion"`
	AverageIntensity float64 `json:"average_intensity"`
	EmotionalState   string  `json:"emotional_state"`
	WellBeingScore   float64 `json:"well_being_score"`
	StressLevel      float64 `json:"stress_level"`
	EnergyLevel      float64 `json:"energy_level"`
	Satisfaction     float64 `json:"satisfaction"`
}

type aiPerformancePayload struct {
	Helpfulness float64 `json:"helpfulness"`
	Empathy     float64 `json:"empathy"`
}

type insightsPayload struct {
	EmotionalPatterns []string             `json:"emotional_patterns"`
	Concerns          []string             `json:"concerns"`
	PositiveFactors   []string             `json:"positive_factors"`
	Recommendations   []string             `json:"recommendations"`
	KeyTopics         []string             `json:"key_topics"`
	AIPerformance     aiPerformancePayload `json:"ai_performance"`
}

type predictivePayload struct {
	RiskFactors      []string `json:"risk_factors"`
	ImprovementAreas []string `json:"improvement_areas"`
	EarlyWarnings    []string `json:"early_warnings"`
	NextWeekMood     float64  `json:"next_week_mood"`
	NextWeekStress   float64  `json:"next_week_stress"`
	NextWeekEnergy   float64  `json:"next_week_energy"`
	Confidence       float64  `json:"confidence"`
}

var (
	responseScoreSchema       = llm.GenerateSchema[responseScorePayload]()
	conversationSummarySchema = llm.GenerateSchema[conversationSummaryPayload]()
	insightsSchema            = llm.GenerateSchema[insightsPayload]()
	predictiveSchema          = llm.GenerateSchema[predictivePayload]()
)

// ExtractionService scores free-text responses and derives whole-conversation
// summaries through the text-generation API. Every numeric output is clamped
// to its documented range, and every call degrades to a neutral default set
// on failure; callers never see an extraction error.
type ExtractionService struct {
	llm llm.Caller
	log *zap.Logger
}

// NewExtractionService builds an extraction service around a structured
// generation caller.
func NewExtractionService(caller llm.Caller, log *zap.Logger) *ExtractionService {
	return &ExtractionService{llm: caller, log: log}
}

// DefaultEmotionAnalysis is the documented neutral fallback for a single
// response. Scored=false marks it as never actually scored so averaging
// skips it.
func DefaultEmotionAnalysis() model.EmotionAnalysis {
	return model.EmotionAnalysis{
		PrimaryEmotion: "neutral",
		Intensity:      5,
		Confidence:     0,
		Triggers:       []string{},
		Needs:          []string{},
		Sentiment:      0,
		Scored:         false,
	}
}

// DefaultOverallEmotion is the documented neutral fallback for a
// conversation summary.
func DefaultOverallEmotion() model.OverallEmotion {
	return model.OverallEmotion{
		DominantEmotion:  "neutral",
		AverageIntensity: 5,
		EmotionalState:   "neutral",
		WellBeingScore:   5,
		StressLevel:      5,
		EnergyLevel:      5,
		Satisfaction:     5,
	}
}

// DefaultInsights is the documented fallback insight set
func DefaultInsights() model.ConversationInsights {
	return model.ConversationInsights{
		EmotionalPatterns: []string{},
		Concerns:          []string{},
		PositiveFactors:   []string{},
		Recommendations:   []string{},
		KeyTopics:         []string{},
	}
}

// DefaultPredictive is the documented fallback projection
func DefaultPredictive() model.PredictiveInsights {
	return model.PredictiveInsights{
		RiskFactors:      []string{},
		ImprovementAreas: []string{},
		EarlyWarnings:    []string{},
		NextWeek: model.WeekProjection{
			Mood:       5,
			Stress:     5,
			Energy:     5,
			Confidence: 0,
		},
	}
}

// ScoreResponse scores one free-text response. The returned analysis always
// has every numeric field within bounds; on any call failure the neutral
// default is returned with Scored=false.
func (s *ExtractionService) ScoreResponse(ctx context.Context, questionText, userResponse, conversationContext string) model.EmotionAnalysis {
	input := fmt.Sprintf("Question: %s\nResponse: %s", questionText, userResponse)
	if conversationContext != "" {
		input += "\nContext: " + conversationContext
	}

	var payload responseScorePayload
	err := s.llm.GenerateJSON(ctx, llm.Request{
		SchemaName:   "ResponseEmotionScore",
		Description:  "Emotion scoring for one survey response",
		Instructions: scoreResponseInstructions,
		Input:        input,
		Schema:       responseScoreSchema,
	}, &payload)
	if err != nil {
		s.log.Warn("response scoring failed, using neutral defaults", zap.Error(err))
		prometheus.RecordLLMCall("score_response", "fallback")
		return DefaultEmotionAnalysis()
	}
	prometheus.RecordLLMCall("score_response", "ok")

	analysis := model.EmotionAnalysis{
		PrimaryEmotion: normalizeLabel(payload.PrimaryEmotion, "neutral"),
		Intensity:      clamp(payload.Intensity, 1, 10),
		Confidence:     clamp(payload.Confidence, 0, 1),
		Triggers:       nonNil(payload.Triggers),
		Context:        payload.Context,
		Needs:          nonNil(payload.Needs),
		Sentiment:      clamp(payload.Sentiment, -1, 1),
		Scored:         true,
	}
	return analysis
}

// SummarizeConversation produces the aggregate overallEmotion block for a
// completed conversation. Defaults apply on any failure.
func (s *ExtractionService) SummarizeConversation(ctx context.Context, conv *model.EmotionConversation) model.OverallEmotion {
	input := renderConversation(conv)
	if input == "" {
		return DefaultOverallEmotion()
	}

	var payload conversationSummaryPayload
	err := s.llm.GenerateJSON(ctx, llm.Request{
		SchemaName:   "ConversationSummary",
		Description:  "Aggregate emotional summary of a conversation",
		Instructions: summarizeInstructions,
		Input:        input,
		Schema:       conversationSummarySchema,
	}, &payload)
	if err != nil {
		s.log.Warn("conversation summary failed, using neutral defaults",
			zap.String("session_id", conv.SessionID), zap.Error(err))
		prometheus.RecordLLMCall("summarize_conversation", "fallback")
		return DefaultOverallEmotion()
	}
	prometheus.RecordLLMCall("summarize_conversation", "ok")

	return model.OverallEmotion{
		DominantEmotion:  normalizeLabel(payload.DominantEmotion, "neutral"),
		AverageIntensity: clamp(payload.AverageIntensity, 1, 10),
		EmotionalState:   normalizeLabel(payload.EmotionalState, "neutral"),
		WellBeingScore:   clamp(payload.WellBeingScore, 1, 10),
		StressLevel:      clamp(payload.StressLevel, 1, 10),
		EnergyLevel:      clamp(payload.EnergyLevel, 1, 10),
		Satisfaction:     clamp(payload.Satisfaction, 1, 10),
	}
}

// DeriveInsights produces the free-text insight lists plus the AI
// performance block consumed by the quality metrics. The second return
// value is the helpfulness score, already clamped, with the fixed fallback
// applied when the call fails.
func (s *ExtractionService) DeriveInsights(ctx context.Context, conv *model.EmotionConversation) (model.ConversationInsights, float64) {
	const helpfulnessFallback = 7 // placeholder until a measured signal exists

	input := renderConversation(conv)
	if input == "" {
		return DefaultInsights(), helpfulnessFallback
	}

	var payload insightsPayload
	err := s.llm.GenerateJSON(ctx, llm.Request{
		SchemaName:   "ConversationInsights",
		Description:  "Free-text insights derived from a conversation",
		Instructions: insightsInstructions,
		Input:        input,
		Schema:       insightsSchema,
	}, &payload)
	if err != nil {
		s.log.Warn("insight derivation failed, using defaults",
			zap.String("session_id", conv.SessionID), zap.Error(err))
		prometheus.RecordLLMCall("derive_insights", "fallback")
		return DefaultInsights(), helpfulnessFallback
	}
	prometheus.RecordLLMCall("derive_insights", "ok")

	insights := model.ConversationInsights{
		EmotionalPatterns: nonNil(payload.EmotionalPatterns),
		Concerns:          nonNil(payload.Concerns),
		PositiveFactors:   nonNil(payload.PositiveFactors),
		Recommendations:   nonNil(payload.Recommendations),
		KeyTopics:         nonNil(payload.KeyTopics),
	}

	helpfulness := clamp(payload.AIPerformance.Helpfulness, 1, 10)
	if payload.AIPerformance.Helpfulness == 0 {
		helpfulness = helpfulnessFallback
	}
	return insights, helpfulness
}

// PredictInsights produces the forward-looking projection used by the
// aggregator's predictive block. Defaults apply on any failure.
func (s *ExtractionService) PredictInsights(ctx context.Context, conv *model.EmotionConversation, historical model.HistoricalAnalysis) model.PredictiveInsights {
	input := renderConversation(conv)
	if input == "" {
		return DefaultPredictive()
	}
	input += fmt.Sprintf("\nHistory: previous mood %.1f, trend %s, %d prior conversations",
		historical.PreviousMood, historical.TrendDirection, historical.SampleSize)

	var payload predictivePayload
	err := s.llm.GenerateJSON(ctx, llm.Request{
		SchemaName:   "PredictiveInsights",
		Description:  "Risk factors and next-week projection",
		Instructions: predictiveInstructions,
		Input:        input,
		Schema:       predictiveSchema,
	}, &payload)
	if err != nil {
		s.log.Warn("predictive insight call failed, using defaults",
			zap.String("session_id", conv.SessionID), zap.Error(err))
		prometheus.RecordLLMCall("predict_insights", "fallback")
		return DefaultPredictive()
	}
	prometheus.RecordLLMCall("predict_insights", "ok")

	return model.PredictiveInsights{
		RiskFactors:      nonNil(payload.RiskFactors),
		ImprovementAreas: nonNil(payload.ImprovementAreas),
		EarlyWarnings:    nonNil(payload.EarlyWarnings),
		NextWeek: model.WeekProjection{
			Mood:       clamp(payload.NextWeekMood, 1, 10),
			Stress:     clamp(payload.NextWeekStress, 1, 10),
			Energy:     clamp(payload.NextWeekEnergy, 1, 10),
			Confidence: clamp(payload.Confidence, 0, 1),
		},
	}
}

const scoreResponseInstructions = `You score the emotional content of one survey response.
Return the primary emotion, an intensity from 1 to 10, your confidence from 0 to 1,
the triggers and needs you can identify, and an overall sentiment from -1 to 1.`

const summarizeInstructions = `You summarize the emotional arc of a completed check-in conversation.
Return the dominant emotion, the average intensity (1-10), a one-word emotional state,
and well-being, stress, energy and satisfaction scores, each from 1 to 10.`

const insightsInstructions = `You derive insights from a completed check-in conversation.
Return emotional patterns, concerns, positive factors, recommendations and key topics
as short plain-language phrases, plus helpfulness and empathy ratings (1-10) for the
assistant's side of the conversation.`

const predictiveInstructions = `You project the user's emotional trajectory for the coming week
from a completed conversation and a short history summary. Return risk factors,
improvement areas and early warning signals as short phrases, next-week mood, stress
and energy each from 1 to 10, and your confidence from 0 to 1.`

// renderConversation flattens a conversation into prompt text
func renderConversation(conv *model.EmotionConversation) string {
	if conv == nil || len(conv.Questions) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation type: %s, started %s\n",
		conv.ConversationType, conv.StartedAt.Format(time.RFC3339))
	for _, q := range conv.Questions {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", q.QuestionText, q.UserResponse)
	}
	return b.String()
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeLabel lowercases a label and substitutes a fallback when empty
func normalizeLabel(label, fallback string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return fallback
	}
	return label
}

// nonNil replaces a nil slice with an empty one so jsonb blocks never carry null lists
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
