package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

func seedSurvey(t *testing.T, svc *SurveyService, survey *model.Survey) *model.Survey {
	t.Helper()
	require.NoError(t, svc.db.Create(survey).Error)
	return survey
}

func newSurveyStack(t *testing.T) *SurveyService {
	t.Helper()
	db := openTestDB(t)
	return NewSurveyService(db, NewExtractionService(scoringCaller(), zap.NewNop()), zap.NewNop())
}

func activeSurvey(tenantID uint) *model.Survey {
	return &model.Survey{
		TenantID: tenantID,
		Title:    "Pulse check",
		Status:   model.SurveyActive,
		Questions: model.SurveyQuestionList{
			{ID: "q1", Text: "How is your week going?", Type: "open", Required: true},
			{ID: "q2", Text: "Rate your energy", Type: "scale", Required: false},
		},
		Settings: model.SurveySettings{AllowAnonymous: true},
	}
}

func TestSubmitResponseScoresOpenAnswers(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := seedSurvey(t, svc, activeSurvey(1))

	userID := uint(10)
	response, err := svc.SubmitResponse(ctx, 1, survey.ID, &userID, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "Exhausting, deadlines everywhere"},
		{QuestionID: "q2", Answer: "4"},
	}, model.ResponseMetadata{})
	require.NoError(t, err)

	require.Len(t, response.Responses, 2)
	require.True(t, response.Responses[0].Emotion.Scored)
	require.Equal(t, "stressed", response.Responses[0].Emotion.PrimaryEmotion)
	// scale answers are never sent for scoring
	require.False(t, response.Responses[1].Emotion.Scored)

	require.True(t, response.Analytics.Completed)
	require.Equal(t, "stressed", response.Analytics.DominantEmotion)
	require.InDelta(t, -0.4, response.Analytics.AverageSentiment, 1e-9)

	// The survey rollup refreshed after the write
	stored, err := svc.Get(ctx, 1, survey.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Analytics.ResponseCount)
	require.Equal(t, 1.0, stored.Analytics.CompletionRate)
}

func TestSubmitResponseIncompleteWhenRequiredUnanswered(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := seedSurvey(t, svc, activeSurvey(1))

	response, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q2", Answer: "3"},
	}, model.ResponseMetadata{})
	require.NoError(t, err)
	require.False(t, response.Analytics.Completed)
}

func TestSubmitResponseRejectsDraftSurvey(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := activeSurvey(1)
	survey.Status = model.SurveyDraft
	seedSurvey(t, svc, survey)

	_, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "hi"},
	}, model.ResponseMetadata{})
	require.ErrorIs(t, err, ErrSurveyClosed)
}

func TestSubmitResponseRejectsExpiredSurvey(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := activeSurvey(1)
	past := time.Now().Add(-time.Hour)
	survey.Settings.ClosesAt = &past
	seedSurvey(t, svc, survey)

	_, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "hi"},
	}, model.ResponseMetadata{})
	require.ErrorIs(t, err, ErrSurveyClosed)
}

func TestSubmitResponseRejectsAnonymousWhenDisallowed(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := activeSurvey(1)
	survey.Settings.AllowAnonymous = false
	seedSurvey(t, svc, survey)

	_, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "hi"},
	}, model.ResponseMetadata{})
	require.ErrorIs(t, err, ErrSurveyAnonymous)

	userID := uint(10)
	_, err = svc.SubmitResponse(ctx, 1, survey.ID, &userID, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "hi"},
	}, model.ResponseMetadata{})
	require.NoError(t, err)
}

func TestSubmitResponseEnforcesMaxResponses(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := activeSurvey(1)
	survey.Settings.MaxResponses = 1
	seedSurvey(t, svc, survey)

	_, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "first"},
	}, model.ResponseMetadata{})
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "second"},
	}, model.ResponseMetadata{})
	require.ErrorIs(t, err, ErrSurveyClosed)
}

func TestSurveysAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := seedSurvey(t, svc, activeSurvey(1))

	_, err := svc.Get(ctx, 2, survey.ID)
	require.ErrorIs(t, err, ErrSurveyNotFound)

	_, err = svc.SubmitResponse(ctx, 2, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "hi"},
	}, model.ResponseMetadata{})
	require.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestSubmitResponseIgnoresUnknownQuestions(t *testing.T) {
	ctx := context.Background()
	svc := newSurveyStack(t)
	survey := seedSurvey(t, svc, activeSurvey(1))

	response, err := svc.SubmitResponse(ctx, 1, survey.ID, nil, []SubmittedAnswer{
		{QuestionID: "q1", Answer: "fine"},
		{QuestionID: "bogus", Answer: "dropped"},
	}, model.ResponseMetadata{})
	require.NoError(t, err)
	require.Len(t, response.Responses, 1)
}
