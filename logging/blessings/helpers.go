package blessings

import (
	"context"

	"github.com/virtu333/rogue-emblem-sub003/logging"
)

const (
	// EventEffectApplied is emitted when a blessing effect mutates the run.
	EventEffectApplied logging.EventType = "blessing.effect_applied"
	// EventEffectSkipped is emitted when an effect is malformed or not applicable.
	EventEffectSkipped logging.EventType = "blessing.effect_skipped"
	// EventEffectReverted is emitted when an act-scoped effect is undone.
	EventEffectReverted logging.EventType = "blessing.effect_reverted"
	// EventPersonalSkillsRestored is emitted when suppressed personal skills return.
	EventPersonalSkillsRestored logging.EventType = "blessing.personal_skills_restored"
)

// EffectPayload identifies the effect an event refers to.
type EffectPayload struct {
	Stage      string `json:"stage"`
	EffectType string `json:"effectType"`
	Reason     string `json:"reason,omitempty"`
}

// SkillsRestoredPayload lists the restored unit/skill pairs.
type SkillsRestoredPayload struct {
	Act    string   `json:"act"`
	Skills []string `json:"skills"`
}

func blessingRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindBlessing}
}

// EffectApplied publishes a successful effect application.
func EffectApplied(ctx context.Context, pub logging.Publisher, runID, blessingID string, payload EffectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEffectApplied,
		RunID:    runID,
		Actor:    blessingRef(blessingID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBlessing,
		Payload:  payload,
	})
}

// EffectSkipped publishes a skipped effect. Skips are warnings: the run
// continues, but the data that produced them deserves a look.
func EffectSkipped(ctx context.Context, pub logging.Publisher, runID, blessingID string, payload EffectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEffectSkipped,
		RunID:    runID,
		Actor:    blessingRef(blessingID),
		Severity: logging.SeverityWarn,
		Category: logging.CategoryBlessing,
		Payload:  payload,
	})
}

// EffectReverted publishes an act-scoped reversion.
func EffectReverted(ctx context.Context, pub logging.Publisher, runID, blessingID string, payload EffectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEffectReverted,
		RunID:    runID,
		Actor:    blessingRef(blessingID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBlessing,
		Payload:  payload,
	})
}

// PersonalSkillsRestored publishes the end of a personal skill suppression.
func PersonalSkillsRestored(ctx context.Context, pub logging.Publisher, runID string, payload SkillsRestoredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPersonalSkillsRestored,
		RunID:    runID,
		Actor:    logging.RunRef(runID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBlessing,
		Payload:  payload,
	})
}
