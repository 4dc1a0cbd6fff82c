package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// Service-level errors mapped to HTTP statuses by the handlers
var (
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrConversationCompleted = errors.New("conversation already completed")
)

// conversationQuestions is the fixed question bank per conversation type
var conversationQuestions = map[string][]model.SurveyQuestion{
	model.ConversationDaily: {
		{ID: "daily_1", Text: "How are you feeling today?", Type: "open", Required: true},
		{ID: "daily_2", Text: "What was the most significant part of your day?", Type: "open", Required: true},
		{ID: "daily_3", Text: "Is anything weighing on you right now?", Type: "open", Required: false},
	},
	model.ConversationWeekly: {
		{ID: "weekly_1", Text: "How would you describe this week overall?", Type: "open", Required: true},
		{ID: "weekly_2", Text: "What energized you the most this week?", Type: "open", Required: true},
		{ID: "weekly_3", Text: "What drained you the most this week?", Type: "open", Required: true},
		{ID: "weekly_4", Text: "What would make next week better?", Type: "open", Required: false},
	},
	model.ConversationMonthly: {
		{ID: "monthly_1", Text: "Looking back at this month, how do you feel about it?", Type: "open", Required: true},
		{ID: "monthly_2", Text: "How has your workload felt over the month?", Type: "open", Required: true},
		{ID: "monthly_3", Text: "How connected do you feel to your team?", Type: "open", Required: true},
		{ID: "monthly_4", Text: "What is one change that would improve your work life?", Type: "open", Required: false},
	},
	model.ConversationCustom: {
		{ID: "custom_1", Text: "What would you like to talk about?", Type: "open", Required: true},
	},
}

// ConversationService owns the conversation lifecycle: start, respond,
// complete. Completion uses a conditional claim write so exactly one caller
// wins the in_progress -> completed transition.
type ConversationService struct {
	db         *gorm.DB
	extraction *ExtractionService
	aggregator *Aggregator
	snapshots  *EmotionSnapshotService
	log        *zap.Logger
}

// NewConversationService wires the conversation lifecycle
func NewConversationService(db *gorm.DB, extraction *ExtractionService, aggregator *Aggregator, snapshots *EmotionSnapshotService, log *zap.Logger) *ConversationService {
	return &ConversationService{
		db:         db,
		extraction: extraction,
		aggregator: aggregator,
		snapshots:  snapshots,
		log:        log,
	}
}

// Start creates a new in_progress conversation and returns its question set
func (s *ConversationService) Start(ctx context.Context, tenantID, userID uint, conversationType string) (*model.EmotionConversation, []model.SurveyQuestion, error) {
	questions, ok := conversationQuestions[conversationType]
	if !ok {
		conversationType = model.ConversationDaily
		questions = conversationQuestions[model.ConversationDaily]
	}

	conv := &model.EmotionConversation{
		TenantID:         tenantID,
		UserID:           userID,
		SessionID:        uuid.New().String(),
		ConversationType: conversationType,
		Questions:        model.QuestionEntryList{},
		Status:           model.ConversationInProgress,
		StartedAt:        time.Now(),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.Info("conversation started",
		zap.String("session_id", conv.SessionID),
		zap.String("type", conversationType),
		zap.Uint("user_id", userID))
	return conv, questions, nil
}

// Respond appends one question/response pair to an in_progress conversation,
// scoring the response first. Appending to a completed conversation is
// rejected.
func (s *ConversationService) Respond(ctx context.Context, tenantID, userID uint, sessionID, questionID, questionText, userResponse string) (*model.EmotionConversation, model.EmotionAnalysis, error) {
	conv, err := s.GetBySession(ctx, tenantID, userID, sessionID)
	if err != nil {
		return nil, model.EmotionAnalysis{}, err
	}
	if conv.Status != model.ConversationInProgress {
		return nil, model.EmotionAnalysis{}, ErrConversationCompleted
	}

	analysis := s.extraction.ScoreResponse(ctx, questionText, userResponse, conv.ConversationType)

	conv.Questions = append(conv.Questions, model.QuestionEntry{
		QuestionID:   questionID,
		QuestionText: questionText,
		UserResponse: userResponse,
		RespondedAt:  time.Now(),
		Emotion:      analysis,
	})

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = s.db.WithContext(ctx).
		Model(conv).
		Where("status = ?", model.ConversationInProgress).
		Update("questions", conv.Questions).Error
	if err != nil {
		return nil, model.EmotionAnalysis{}, fmt.Errorf("append response: %w", err)
	}

	return conv, analysis, nil
}

// Complete claims the terminal status transition, computes the overall
// emotion and insights once, and runs the analytics rollup. Exactly one
// concurrent caller wins the claim; the rest get ErrConversationCompleted.
func (s *ConversationService) Complete(ctx context.Context, tenantID, userID uint, sessionID string, factors *ContextFactors) (*model.EmotionConversation, *model.ConversationAnalytics, error) {
	conv, err := s.GetBySession(ctx, tenantID, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if conv.Status != model.ConversationInProgress {
		return nil, nil, ErrConversationCompleted
	}

	// Claim the transition. RowsAffected 0 means another caller won.
	now := time.Now()
	claim := s.db.WithContext(ctx).
		Model(&model.EmotionConversation{}).
		Where("id = ? AND status = ?", conv.ID, model.ConversationInProgress).
		Updates(map[string]interface{}{
			"status":       model.ConversationCompleted,
			"completed_at": now,
		})
	if claim.Error != nil {
		return nil, nil, fmt.Errorf("claim completion: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return nil, nil, ErrConversationCompleted
	}
	conv.Status = model.ConversationCompleted
	conv.CompletedAt = &now

	// Extraction calls degrade to defaults internally; the flow completes
	// regardless of the provider.
	conv.OverallEmotion = s.extraction.SummarizeConversation(ctx, conv)
	insights, _ := s.extraction.DeriveInsights(ctx, conv)
	conv.Insights = insights

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = s.db.WithContext(ctx).
		Model(conv).
		Updates(map[string]interface{}{
			"overall_emotion": conv.OverallEmotion,
			"insights":        conv.Insights,
		}).Error
	if err != nil {
		return nil, nil, fmt.Errorf("persist completion: %w", err)
	}

	analytics, err := s.aggregator.Analyze(ctx, conv, factors)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.snapshots.RecordCompletion(ctx, conv, analytics.Quality.Engagement); err != nil {
		// The rollup record exists; a snapshot failure is logged, not fatal.
		s.log.Error("emotion snapshot write failed",
			zap.String("session_id", conv.SessionID), zap.Error(err))
	}

	s.log.Info("conversation completed",
		zap.String("session_id", conv.SessionID),
		zap.Float64("well_being", conv.OverallEmotion.WellBeingScore))
	return conv, analytics, nil
}

// GetBySession loads a conversation scoped to tenant and owner
func (s *ConversationService) GetBySession(ctx context.Context, tenantID, userID uint, sessionID string) (*model.EmotionConversation, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var conv model.EmotionConversation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND session_id = ?", tenantID, userID, sessionID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return &conv, nil
}

// GetByID loads a conversation by numeric id scoped to tenant only; used by
// the on-demand analyze endpoint where managers act across users.
func (s *ConversationService) GetByID(ctx context.Context, tenantID, conversationID uint) (*model.EmotionConversation, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var conv model.EmotionConversation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, conversationID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return &conv, nil
}

// List returns the user's conversations, newest first
func (s *ConversationService) List(ctx context.Context, tenantID, userID uint, limit int) ([]model.EmotionConversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var convs []model.EmotionConversation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}
