package service

import (
	"sort"
	"strings"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// topicKeywords maps each tracked topic to its keyword list. A user turn
// contributes to a topic once per matching keyword (case-insensitive
// substring match).
var topicKeywords = map[string][]string{
	"work":          {"work", "job", "deadline", "meeting", "boss", "colleague", "project", "office"},
	"stress":        {"stress", "overwhelmed", "pressure", "anxious", "anxiety", "worried", "burnout"},
	"relationships": {"family", "friend", "partner", "relationship", "team", "manager"},
	"health":        {"health", "sleep", "tired", "exercise", "sick", "doctor"},
	"goals":         {"goal", "plan", "future", "career", "growth", "learning", "ambition"},
}

// topicOrder fixes iteration order so equal-frequency topics sort stably
var topicOrder = []string{"work", "stress", "relationships", "health", "goals"}

// analyzeTopics counts keyword matches across the user turns and returns
// detected topics sorted by frequency descending.
func analyzeTopics(turns []model.QuestionEntry) model.TopicFrequencyList {
	counts := make(map[string]int)
	for _, turn := range turns {
		text := strings.ToLower(turn.UserResponse)
		for topic, keywords := range topicKeywords {
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					counts[topic]++
				}
			}
		}
	}

	result := make(model.TopicFrequencyList, 0, len(counts))
	for _, topic := range topicOrder {
		if counts[topic] > 0 {
			result = append(result, model.TopicFrequency{Topic: topic, Frequency: counts[topic]})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Frequency > result[j].Frequency
	})
	return result
}

// topicFrequency returns the recorded frequency for one topic
func topicFrequency(topics model.TopicFrequencyList, topic string) int {
	for _, t := range topics {
		if t.Topic == topic {
			return t.Frequency
		}
	}
	return 0
}
