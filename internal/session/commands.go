package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
)

// Command types accepted by Do.
const (
	CommandBlessingOptions        = "blessingOptions"
	CommandChooseBlessing         = "chooseBlessing"
	CommandApplyRunStartBlessings = "applyRunStartBlessings"
	CommandAvailableNodes         = "availableNodes"
	CommandSelectNode             = "selectNode"
	CommandCompleteBattle         = "completeBattle"
	CommandLockBattleConfig       = "lockBattleConfig"
	CommandRest                   = "rest"
	CommandRevive                 = "revive"
	CommandRecruit                = "recruit"
	CommandUseVision              = "useVision"
	CommandAdvanceAct             = "advanceAct"
	CommandFailRun                = "failRun"
	CommandSettleRewards          = "settleRewards"
	CommandVisitShop              = "visitShop"
	CommandBuy                    = "buy"
	CommandSell                   = "sell"
	CommandForge                  = "forge"
	CommandDeposit                = "deposit"
	CommandDepositConsumable      = "depositConsumable"
	CommandWithdraw               = "withdraw"
	CommandEquipAccessory         = "equipAccessory"
	CommandUnequipAccessory       = "unequipAccessory"
	CommandTeachScroll            = "teachScroll"
)

// Reject reasons.
const (
	ReasonNoActiveRun    = "no_active_run"
	ReasonUnknownCommand = "unknown_command"
	ReasonRejected       = "rejected"
	ReasonPersistFailed  = "persist_failed"
)

// ErrUnknownCommand is returned for an unrecognised Command.Type.
var ErrUnknownCommand = errors.New("session: unknown command")

// Command is one client request against the live run. Only the fields the
// command type reads need to be set.
type Command struct {
	Type       string          `json:"type"`
	NodeID     string          `json:"nodeId,omitempty"`
	BlessingID string          `json:"blessingId,omitempty"`
	UnitName   string          `json:"unitName,omitempty"`
	ClassName  string          `json:"className,omitempty"`
	Index      int             `json:"index,omitempty"`
	Stat       string          `json:"stat,omitempty"`
	Cost       int             `json:"cost,omitempty"`
	Gold       int             `json:"gold,omitempty"`
	Survivors  []units.Unit    `json:"survivors,omitempty"`
	Consumable bool            `json:"consumable,omitempty"`
	AllowTier4 bool            `json:"allowTier4,omitempty"`
	Count      int             `json:"count,omitempty"`
	Result     run.Status      `json:"result,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Result is the outcome of an accepted command. Data is command specific.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func rejected() Result { return Result{Reason: ReasonRejected} }

// Do executes cmd against the live run and persists the run when the
// command changed it. A refused operation is reported in Result, not as an
// error; errors are reserved for a missing run, an unknown command and
// persistence failures. The command runs on a copy that replaces the live
// run only once it is saved, so a failed save leaves the run as it was.
func (m *Manager) Do(ctx context.Context, cmd Command) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return Result{Reason: ReasonNoActiveRun}, ErrNoActiveRun
	}
	work := m.state.Clone()
	res, mutated, err := m.dispatch(ctx, work, cmd)
	if err != nil {
		return res, err
	}
	if !mutated || !res.OK {
		return res, nil
	}
	if err := m.persistLocked(ctx, work); err != nil {
		// A meta grant already reached the ledger and cannot be undone.
		if work.EndRunRewards != nil && work.EndRunRewards.AppliedToMeta {
			r := *work.EndRunRewards
			m.state.EndRunRewards = &r
		}
		return Result{Reason: ReasonPersistFailed}, fmt.Errorf("persist after %s: %w", cmd.Type, err)
	}
	m.state = work
	return res, nil
}

func (m *Manager) dispatch(ctx context.Context, s *run.State, cmd Command) (Result, bool, error) {
	accept := func(ok bool, data any) (Result, bool, error) {
		if !ok {
			return rejected(), false, nil
		}
		return Result{OK: true, Data: data}, true, nil
	}

	switch cmd.Type {
	case CommandBlessingOptions:
		sel := s.BlessingOptions(cmd.Count, cmd.AllowTier4)
		return Result{OK: true, Data: sel.Selected}, false, nil
	case CommandChooseBlessing:
		return accept(s.ChooseBlessing(ctx, cmd.BlessingID), nil)
	case CommandApplyRunStartBlessings:
		return accept(s.ApplyRunStartBlessings(ctx), nil)
	case CommandAvailableNodes:
		return Result{OK: true, Data: s.GetAvailableNodes()}, false, nil
	case CommandSelectNode:
		node, ok := s.SelectNode(cmd.NodeID)
		if !ok {
			return rejected(), false, nil
		}
		return Result{OK: true, Data: node}, false, nil
	case CommandCompleteBattle:
		out, ok := s.CompleteBattle(ctx, cmd.Survivors, cmd.NodeID, cmd.Gold)
		return accept(ok, out)
	case CommandLockBattleConfig:
		cfg, err := s.LockBattleConfig(cmd.NodeID, func() (json.RawMessage, error) {
			if len(cmd.Config) == 0 {
				return nil, fmt.Errorf("battle config is required")
			}
			return cmd.Config, nil
		})
		if err != nil {
			return Result{Reason: ReasonRejected, Data: err.Error()}, false, nil
		}
		return Result{OK: true, Data: cfg}, true, nil
	case CommandRest:
		return accept(s.Rest(cmd.NodeID), nil)
	case CommandRevive:
		return accept(s.ReviveFallenUnit(ctx, cmd.UnitName, cmd.Cost), nil)
	case CommandRecruit:
		u, ok := s.Recruit(ctx, cmd.NodeID, cmd.ClassName)
		return accept(ok, u)
	case CommandUseVision:
		ok := s.UseVision()
		return accept(ok, s.VisionChargesRemaining)
	case CommandAdvanceAct:
		ok := s.AdvanceAct(ctx)
		return accept(ok, s.CurrentAct())
	case CommandFailRun:
		return accept(s.FailRun(ctx), nil)
	case CommandSettleRewards:
		if s.Status == run.StatusActive {
			return rejected(), false, nil
		}
		return accept(true, s.SettleEndRunRewards(ctx, m.meta, cmd.Result))
	case CommandVisitShop:
		shop, ok := s.VisitShop(ctx, cmd.NodeID)
		return accept(ok, shop)
	case CommandBuy:
		ok := s.BuyItem(ctx, cmd.NodeID, cmd.Index, cmd.UnitName)
		return accept(ok, s.Gold)
	case CommandSell:
		price, ok := s.SellItem(ctx, cmd.UnitName, cmd.Index)
		return accept(ok, price)
	case CommandForge:
		ok := s.ForgeWeapon(ctx, cmd.UnitName, cmd.Index, cmd.Stat)
		return accept(ok, s.Gold)
	case CommandDeposit:
		return accept(s.DepositToConvoy(cmd.UnitName, cmd.Index), nil)
	case CommandDepositConsumable:
		return accept(s.DepositConsumable(cmd.UnitName, cmd.Index), nil)
	case CommandWithdraw:
		return accept(s.WithdrawFromConvoy(cmd.UnitName, cmd.Index, cmd.Consumable), nil)
	case CommandEquipAccessory:
		return accept(s.EquipAccessory(cmd.UnitName, cmd.Index), nil)
	case CommandUnequipAccessory:
		return accept(s.UnequipAccessory(cmd.UnitName), nil)
	case CommandTeachScroll:
		return accept(s.TeachScroll(cmd.UnitName, cmd.Index), nil)
	default:
		return Result{Reason: ReasonUnknownCommand}, false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}
