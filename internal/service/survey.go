package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// Survey submission errors
var (
	ErrSurveyNotFound  = errors.New("survey not found")
	ErrSurveyClosed    = errors.New("survey is not accepting responses")
	ErrSurveyAnonymous = errors.New("survey does not accept anonymous responses")
)

// SurveyService owns response submission and the naive per-survey analytics
// refresh for the voice-survey variant.
type SurveyService struct {
	db         *gorm.DB
	extraction *ExtractionService
	log        *zap.Logger
}

// NewSurveyService wires survey submission
func NewSurveyService(db *gorm.DB, extraction *ExtractionService, log *zap.Logger) *SurveyService {
	return &SurveyService{db: db, extraction: extraction, log: log}
}

// SubmittedAnswer is one raw answer in a submission request
type SubmittedAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// SubmitResponse records one survey response, scoring each free-text answer.
// userID is nil for anonymous submissions.
func (s *SurveyService) SubmitResponse(ctx context.Context, tenantID, surveyID uint, userID *uint, answers []SubmittedAnswer, metadata model.ResponseMetadata) (*model.SurveyResponse, error) {
	survey, err := s.Get(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status != model.SurveyActive {
		return nil, ErrSurveyClosed
	}
	if survey.Settings.ClosesAt != nil && survey.Settings.ClosesAt.Before(time.Now()) {
		return nil, ErrSurveyClosed
	}
	if userID == nil && !survey.Settings.AllowAnonymous {
		return nil, ErrSurveyAnonymous
	}
	if survey.Settings.MaxResponses > 0 && survey.Analytics.ResponseCount >= survey.Settings.MaxResponses {
		return nil, ErrSurveyClosed
	}

	questionByID := make(map[string]model.SurveyQuestion, len(survey.Questions))
	for _, q := range survey.Questions {
		questionByID[q.ID] = q
	}

	items := make(model.AnswerItemList, 0, len(answers))
	var sentimentSum float64
	var scored int
	emotions := make([]string, 0, len(answers))
	answered := make(map[string]bool, len(answers))

	for _, a := range answers {
		question, ok := questionByID[a.QuestionID]
		if !ok {
			continue
		}
		answered[a.QuestionID] = true

		item := model.AnswerItem{QuestionID: a.QuestionID, Answer: a.Answer}
		if question.Type == "open" && a.Answer != "" {
			item.Emotion = s.extraction.ScoreResponse(ctx, question.Text, a.Answer, survey.Title)
			if item.Emotion.Scored {
				scored++
				sentimentSum += item.Emotion.Sentiment
				emotions = append(emotions, item.Emotion.PrimaryEmotion)
			}
		} else {
			item.Emotion = DefaultEmotionAnalysis()
		}
		items = append(items, item)
	}

	completed := true
	for _, q := range survey.Questions {
		if q.Required && !answered[q.ID] {
			completed = false
			break
		}
	}

	analytics := model.ResponseAnalytics{Completed: completed}
	if scored > 0 {
		analytics.AverageSentiment = sentimentSum / float64(scored)
		top := topFrequencies(emotions, 1)
		analytics.DominantEmotion = top[0].Label
	}

	response := &model.SurveyResponse{
		TenantID:  tenantID,
		SurveyID:  surveyID,
		UserID:    userID,
		Responses: items,
		Metadata:  metadata,
		Analytics: analytics,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(response).Error; err != nil {
		return nil, fmt.Errorf("persist survey response: %w", err)
	}

	if err := s.RefreshAnalytics(ctx, tenantID, surveyID); err != nil {
		// The response is stored; a stale rollup is refreshed on the next write.
		s.log.Warn("survey analytics refresh failed",
			zap.Uint("survey_id", surveyID), zap.Error(err))
	}

	return response, nil
}

// RefreshAnalytics recomputes the per-survey rollup from stored responses
func (s *SurveyService) RefreshAnalytics(ctx context.Context, tenantID, surveyID uint) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var responses []model.SurveyResponse
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND survey_id = ?", tenantID, surveyID).
		Find(&responses).Error
	if err != nil {
		return fmt.Errorf("fetch survey responses: %w", err)
	}

	now := time.Now()
	analytics := model.SurveyAnalytics{
		ResponseCount:   len(responses),
		LastRefreshedAt: &now,
	}
	if len(responses) > 0 {
		var completedCount int
		var sentimentSum float64
		var sentimentCount int
		for _, r := range responses {
			if r.Analytics.Completed {
				completedCount++
			}
			if r.Analytics.AverageSentiment != 0 {
				sentimentSum += r.Analytics.AverageSentiment
				sentimentCount++
			}
		}
		analytics.CompletionRate = float64(completedCount) / float64(len(responses))
		if sentimentCount > 0 {
			analytics.AverageSentiment = sentimentSum / float64(sentimentCount)
		}
	}

	return s.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("tenant_id = ? AND id = ?", tenantID, surveyID).
		Update("analytics", analytics).Error
}

// Get loads a survey scoped to its tenant
func (s *SurveyService) Get(ctx context.Context, tenantID, surveyID uint) (*model.Survey, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var survey model.Survey
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, surveyID).
		First(&survey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	return &survey, nil
}
