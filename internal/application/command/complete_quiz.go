package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE QUIZ COMMAND
// Scores the first correct answer per quiz; wrong answers and repeats are
// recorded outcomes, never rewards.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteQuizCommand contains the data to score a quiz answer.
type CompleteQuizCommand struct {
	// QuizID is the quiz that was answered.
	QuizID shared.QuizID

	// Correct is whether the answer matched.
	Correct bool

	// Timestamp is when the answer was submitted (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteQuizCommand) Validate() error {
	if !c.QuizID.IsValid() {
		return fmt.Errorf("complete_quiz: invalid quiz id %q", c.QuizID)
	}
	return nil
}

// CompleteQuizResult contains the result of scoring a quiz answer.
type CompleteQuizResult struct {
	// Rewarded is true only for the first correct answer.
	Rewarded bool

	// AlreadyCompleted is true when the quiz was scored before.
	AlreadyCompleted bool

	// QuizID is the scored quiz.
	QuizID shared.QuizID

	// PointsAwarded is how many points this answer credited.
	PointsAwarded int

	// TotalPoints is the points total after the operation.
	TotalPoints int

	// Unlocks are the achievements this answer unlocked.
	Unlocks []achievement.Unlock

	// Events contains domain events generated.
	Events []shared.Event
}

// CompleteQuizHandler handles the CompleteQuizCommand.
type CompleteQuizHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator
	publisher shared.EventPublisher
}

// NewCompleteQuizHandler creates a new CompleteQuizHandler.
func NewCompleteQuizHandler(
	store progress.Store,
	catalog site.Catalog,
	evaluator *achievement.Evaluator,
	publisher shared.EventPublisher,
) *CompleteQuizHandler {
	return &CompleteQuizHandler{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
		publisher: publisher,
	}
}

// Handle executes the complete quiz command.
func (h *CompleteQuizHandler) Handle(ctx context.Context, cmd CompleteQuizCommand) (*CompleteQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "CompleteQuiz", shared.ErrValidation, "validation failed", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := &CompleteQuizResult{QuizID: cmd.QuizID}

	// Wrong answers never touch state; the client may retry freely.
	if !cmd.Correct {
		_ = h.store.View(ctx, func(s *progress.State) error {
			result.AlreadyCompleted = s.CompletedQuizzes[cmd.QuizID]
			result.TotalPoints = s.TotalPoints.Int()
			return nil
		})
		return result, nil
	}

	var unlocks []achievement.Unlock
	err := h.store.Update(ctx, func(s *progress.State) error {
		if !s.RecordCorrectQuiz(cmd.QuizID) {
			result.AlreadyCompleted = true
			result.TotalPoints = s.TotalPoints.Int()
			return errUnchanged
		}
		result.Rewarded = true
		result.PointsAwarded = progress.PointsQuizCorrect

		sites, err := h.catalog.Sites(ctx)
		if err == nil {
			unlocks = h.evaluator.Evaluate(s, sites, now)
		}
		result.TotalPoints = s.TotalPoints.Int()
		return nil
	})
	if err != nil {
		if isUnchanged(err) {
			return result, nil
		}
		return nil, err
	}

	result.Unlocks = unlocks

	event := shared.QuizCompletedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventQuizCompleted, cmd.QuizID.String()),
		QuizID:       cmd.QuizID,
		PointsEarned: result.PointsAwarded,
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append([]shared.Event{event}, unlockEvents(unlocks, cmd.CorrelationID)...)
	for _, e := range result.Events {
		_ = h.publisher.Publish(e)
	}
	return result, nil
}
