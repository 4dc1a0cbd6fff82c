package service

import (
	"strings"
	"time"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// contextualAnalysis derives when/where context from the conversation's
// wall-clock start time and the optional environment factors.
func contextualAnalysis(startedAt time.Time, factors *ContextFactors) model.ContextualAnalysis {
	analysis := model.ContextualAnalysis{
		TimeOfDay: timeOfDay(startedAt.Hour()),
		DayOfWeek: strings.ToLower(startedAt.Weekday().String()),
		Season:    season(startedAt.Month()),
		Workload:  "unknown",
		Weather:   "unknown",
		Location:  "unknown",
		Device:    "unknown",
	}

	if factors != nil {
		if factors.Workload != "" {
			analysis.Workload = strings.ToLower(factors.Workload)
		}
		if factors.Weather != "" {
			analysis.Weather = strings.ToLower(factors.Weather)
		}
		if factors.Location != "" {
			analysis.Location = strings.ToLower(factors.Location)
		}
		if factors.Device != "" {
			analysis.Device = strings.ToLower(factors.Device)
		}
	}

	analysis.EnvironmentalImpact = environmentalImpact(analysis)
	return analysis
}

func timeOfDay(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// season buckets months in threes, December through February being winter
func season(m time.Month) string {
	switch (int(m) % 12) / 3 {
	case 0:
		return "winter"
	case 1:
		return "spring"
	case 2:
		return "summer"
	default:
		return "autumn"
	}
}

// environmentalImpact scores the environment's effect on the conversation
// in [-5, 5] by a small fixed rule set.
func environmentalImpact(a model.ContextualAnalysis) float64 {
	var impact float64
	switch a.Workload {
	case "high":
		impact -= 2
	case "low":
		impact += 1
	}
	switch a.Weather {
	case "good", "sunny", "clear":
		impact += 1
	case "bad", "rainy", "stormy":
		impact -= 1
	}
	if a.Location == "home" {
		impact += 1
	}
	return clamp(impact, -5, 5)
}

// interactionAnalysis classifies conversational structure. The engagement,
// pause, interruption and hesitation figures are estimates scaled from turn
// counts and response-time statistics, not measured facts.
func interactionAnalysis(conv *model.EmotionConversation, turns []model.QuestionEntry) model.InteractionAnalysis {
	analysis := model.InteractionAnalysis{
		ConversationFlow: conversationFlow(len(turns)),
	}

	if len(turns) == 0 {
		return analysis
	}

	var totalLen float64
	for _, t := range turns {
		totalLen += float64(len(t.UserResponse))
	}
	mean := totalLen / float64(len(turns))

	var variance float64
	for _, t := range turns {
		d := float64(len(t.UserResponse)) - mean
		variance += d * d
	}
	variance /= float64(len(turns))

	var highIntensity int
	var scored int
	for _, t := range turns {
		if t.Emotion.Scored {
			scored++
			if t.Emotion.Intensity >= 7 {
				highIntensity++
			}
		}
	}
	var highFraction float64
	if scored > 0 {
		highFraction = float64(highIntensity) / float64(scored)
	}

	metrics := conversationMetrics(conv)

	analysis.MeanResponseLength = mean
	analysis.ResponseLengthVar = variance
	analysis.Complexity = clamp(1+mean/20, 1, 10)
	analysis.EmotionalDepth = clamp(1+9*highFraction, 1, 10)
	analysis.EngagementEstimate = clamp(float64(len(turns))*1.2, 1, 10)
	analysis.PauseEstimate = metrics.AverageResponseTime * 0.2
	analysis.Interruptions = len(turns) / 5
	analysis.Hesitations = len(turns) / 4
	return analysis
}

// conversationFlow classifies flow purely by turn count
func conversationFlow(turns int) string {
	switch {
	case turns < 3:
		return "linear"
	case turns > 8:
		return "adaptive"
	default:
		return "branching"
	}
}
