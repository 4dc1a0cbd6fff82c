package service

import (
	"time"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// qualityMetrics scores the conversation itself. Engagement tracks average
// response length, openness tracks turn count; trust is a placeholder
// constant (see placeholder.go) and helpfulness comes from the extraction
// service's AI-performance block.
func qualityMetrics(conv *model.EmotionConversation, turns []model.QuestionEntry, helpfulness float64) model.QualityMetrics {
	var totalLen int
	for _, t := range turns {
		totalLen += len(t.UserResponse)
	}
	var avgLen float64
	if len(turns) > 0 {
		avgLen = float64(totalLen) / float64(len(turns))
	}

	return model.QualityMetrics{
		Engagement:   clamp(avgLen/20, 1, 10),
		Openness:     clamp(float64(len(turns))*2, 1, 10),
		Trust:        placeholderTrustScore(),
		Satisfaction: conv.OverallEmotion.Satisfaction,
		Helpfulness:  helpfulness,
	}
}

// buildRecommendations applies the rule set in its fixed emission order:
// stress, then well-being, then topic. Multiple rules may fire.
func buildRecommendations(metrics model.ConversationMetrics, topics model.TopicFrequencyList) model.RecommendationList {
	recs := model.RecommendationList{}

	if metrics.StressLevel > 7 {
		recs = append(recs, model.Recommendation{
			Type:        model.RecommendationEmotionalSupport,
			Priority:    model.PriorityHigh,
			Description: "Stress level is elevated; consider stress-management support or a lighter workload this week.",
		})
	}

	if metrics.WellBeingScore > 0 && metrics.WellBeingScore < 4 {
		recs = append(recs, model.Recommendation{
			Type:        model.RecommendationPersonalDevelopment,
			Priority:    model.PriorityHigh,
			Description: "Well-being is low; a personal development check-in or coaching session is recommended.",
		})
	}

	if topicFrequency(topics, "work") > 3 {
		recs = append(recs, model.Recommendation{
			Type:        model.RecommendationWorkplaceImprovement,
			Priority:    model.PriorityMedium,
			Description: "Work dominates this conversation; review workload and workplace conditions.",
		})
	}

	return recs
}

// trackActions records every recommendation with a timestamp. Follow-up is
// required iff at least one recommendation is high priority; the follow-up
// date defaults to 7 days out.
func trackActions(recs model.RecommendationList, now time.Time) model.ActionTracking {
	tracking := model.ActionTracking{
		Actions: make([]model.TrackedAction, 0, len(recs)),
	}
	for _, r := range recs {
		tracking.Actions = append(tracking.Actions, model.TrackedAction{
			Type:        r.Type,
			Priority:    r.Priority,
			Description: r.Description,
			RecordedAt:  now,
		})
		if r.Priority == model.PriorityHigh {
			tracking.FollowUpRequired = true
		}
	}
	if tracking.FollowUpRequired {
		followUp := now.AddDate(0, 0, 7)
		tracking.FollowUpDate = &followUp
	}
	return tracking
}
