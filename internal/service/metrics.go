package service

import (
	"sort"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// conversationMetrics derives the arithmetic rollup for one conversation.
// Sentiment and intensity averages cover scored responses only: an unscored
// response holds fallback values that would drag the average toward neutral.
func conversationMetrics(conv *model.EmotionConversation) model.ConversationMetrics {
	m := model.ConversationMetrics{
		AITurns:        len(conv.Questions),
		WellBeingScore: conv.OverallEmotion.WellBeingScore,
		StressLevel:    conv.OverallEmotion.StressLevel,
		EnergyLevel:    conv.OverallEmotion.EnergyLevel,
		Satisfaction:   conv.OverallEmotion.Satisfaction,
	}

	var sentimentSum, intensitySum float64
	var latencySum float64
	var latencyCount int
	prev := conv.StartedAt

	for _, q := range conv.Questions {
		if q.UserResponse == "" {
			continue
		}
		m.UserTurns++

		if !q.RespondedAt.IsZero() && !prev.IsZero() && q.RespondedAt.After(prev) {
			latencySum += q.RespondedAt.Sub(prev).Seconds()
			latencyCount++
		}
		if !q.RespondedAt.IsZero() {
			prev = q.RespondedAt
		}

		if q.Emotion.Scored {
			m.ScoredResponses++
			sentimentSum += q.Emotion.Sentiment
			intensitySum += q.Emotion.Intensity
		}
	}

	if latencyCount > 0 {
		m.AverageResponseTime = latencySum / float64(latencyCount)
	}
	if m.ScoredResponses > 0 {
		m.AverageSentiment = sentimentSum / float64(m.ScoredResponses)
		m.AverageIntensity = intensitySum / float64(m.ScoredResponses)
	}
	return m
}

// emotionalInsightSummary frequency-counts emotions, triggers and needs
// across the conversation's scored responses and keeps the top 5 of each.
func emotionalInsightSummary(conv *model.EmotionConversation) model.EmotionalInsightSummary {
	var emotions, triggers, needs []string
	for _, q := range conv.Questions {
		if !q.Emotion.Scored {
			continue
		}
		emotions = append(emotions, q.Emotion.PrimaryEmotion)
		triggers = append(triggers, q.Emotion.Triggers...)
		needs = append(needs, q.Emotion.Needs...)
	}
	return model.EmotionalInsightSummary{
		TopEmotions: topFrequencies(emotions, 5),
		TopTriggers: topFrequencies(triggers, 5),
		TopNeeds:    topFrequencies(needs, 5),
	}
}

// topFrequencies counts occurrences and returns the top n sorted by count
// descending, ties broken by first-seen order.
func topFrequencies(items []string, n int) []model.FrequencyItem {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, seen := counts[item]; !seen {
			order = append(order, item)
		}
		counts[item]++
	}

	result := make([]model.FrequencyItem, 0, len(order))
	for _, label := range order {
		result = append(result, model.FrequencyItem{Label: label, Count: counts[label]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
