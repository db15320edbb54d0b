package lifecycle

import (
	"context"

	"github.com/virtu333/rogue-emblem-sub003/logging"
)

const (
	// EventRunStarted is emitted when a fresh run is created.
	EventRunStarted logging.EventType = "lifecycle.run_started"
	// EventBlessingChosen is emitted when the run commits to a blessing.
	EventBlessingChosen logging.EventType = "lifecycle.blessing_chosen"
	// EventBattleCompleted is emitted after battle settlement.
	EventBattleCompleted logging.EventType = "lifecycle.battle_completed"
	// EventActAdvanced is emitted when the run moves to the next act.
	EventActAdvanced logging.EventType = "lifecycle.act_advanced"
	// EventRunEnded is emitted once the run reaches victory or defeat.
	EventRunEnded logging.EventType = "lifecycle.run_ended"
	// EventRewardsSettled is emitted when end-of-run currency is granted.
	EventRewardsSettled logging.EventType = "lifecycle.rewards_settled"
)

// RunStartedPayload captures the resolved parameters of a new run.
type RunStartedPayload struct {
	Seed        int64    `json:"seed"`
	Difficulty  string   `json:"difficulty"`
	ActSequence []string `json:"actSequence"`
	Roster      []string `json:"roster"`
	Gold        int      `json:"gold"`
}

// BlessingChosenPayload names the committed blessing.
type BlessingChosenPayload struct {
	BlessingID string `json:"blessingId"`
	Tier       int    `json:"tier"`
}

// BattleCompletedPayload summarises a settled battle.
type BattleCompletedPayload struct {
	NodeID      string   `json:"nodeId"`
	Survivors   int      `json:"survivors"`
	NewlyFallen []string `json:"newlyFallen,omitempty"`
	GoldEarned  int      `json:"goldEarned"`
}

// ActAdvancedPayload captures the act transition.
type ActAdvancedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ActIndex int    `json:"actIndex"`
}

// RunEndedPayload captures the terminal status.
type RunEndedPayload struct {
	Status           string `json:"status"`
	ActIndex         int    `json:"actIndex"`
	CompletedBattles int    `json:"completedBattles"`
}

// RewardsSettledPayload captures the currency granted to meta progression.
type RewardsSettledPayload struct {
	Valor  int  `json:"valor"`
	Supply int  `json:"supply"`
	Repeat bool `json:"repeat,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, runID string, severity logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		RunID:    runID,
		Actor:    logging.RunRef(runID),
		Severity: severity,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// RunStarted publishes a run start event.
func RunStarted(ctx context.Context, pub logging.Publisher, runID string, payload RunStartedPayload) {
	publish(ctx, pub, EventRunStarted, runID, logging.SeverityInfo, payload)
}

// BlessingChosen publishes a blessing commitment.
func BlessingChosen(ctx context.Context, pub logging.Publisher, runID string, payload BlessingChosenPayload) {
	publish(ctx, pub, EventBlessingChosen, runID, logging.SeverityInfo, payload)
}

// BattleCompleted publishes a battle settlement.
func BattleCompleted(ctx context.Context, pub logging.Publisher, runID string, payload BattleCompletedPayload) {
	publish(ctx, pub, EventBattleCompleted, runID, logging.SeverityInfo, payload)
}

// ActAdvanced publishes an act transition.
func ActAdvanced(ctx context.Context, pub logging.Publisher, runID string, payload ActAdvancedPayload) {
	publish(ctx, pub, EventActAdvanced, runID, logging.SeverityInfo, payload)
}

// RunEnded publishes the terminal run status.
func RunEnded(ctx context.Context, pub logging.Publisher, runID string, payload RunEndedPayload) {
	publish(ctx, pub, EventRunEnded, runID, logging.SeverityInfo, payload)
}

// RewardsSettled publishes the end-of-run reward grant.
func RewardsSettled(ctx context.Context, pub logging.Publisher, runID string, payload RewardsSettledPayload) {
	publish(ctx, pub, EventRewardsSettled, runID, logging.SeverityInfo, payload)
}
