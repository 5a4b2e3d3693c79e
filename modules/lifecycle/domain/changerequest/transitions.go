package changerequest

import gerrors "github.com/go-faster/errors"

var ErrIllegalTransition = gerrors.New("illegal status transition")

var promotionTransitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusPendingApproval,
	},
	StatusPendingApproval: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
}

// rehireChain is the linear rehire progression. A non-reject decision
// advances exactly one step; reject is reachable from every state,
// including completed.
var rehireChain = []Status{
	StatusDraft,
	StatusAwaitingChecks,
	StatusOffer,
	StatusOnboarding,
	StatusCompleted,
}

// Transition is the outcome of resolving an action against the state
// graph of a request kind. Changed is false when the action lands on
// the current status again; callers record such no-ops in the decision
// trail and report success.
type Transition struct {
	From    Status
	To      Status
	Changed bool
}

// Resolve maps (kind, current status, action) to the resulting status.
// It returns ErrIllegalTransition only for promotion actions that the
// graph does not allow; the rehire graph absorbs every action.
func Resolve(kind Kind, current Status, action Action) (Transition, error) {
	switch kind {
	case KindPromotion:
		to, ok := promotionTransitions[current][action]
		if !ok {
			return Transition{}, gerrors.Wrapf(ErrIllegalTransition, "%s from %s", action, current)
		}
		return Transition{From: current, To: to, Changed: true}, nil
	case KindRehire:
		return resolveRehire(current, action), nil
	default:
		return Transition{}, gerrors.Errorf("unknown request kind %q", kind)
	}
}

func resolveRehire(current Status, action Action) Transition {
	if action == ActionReject {
		if current == StatusRejected {
			return Transition{From: current, To: current, Changed: false}
		}
		return Transition{From: current, To: StatusRejected, Changed: true}
	}
	if IsTerminal(KindRehire, current) {
		return Transition{From: current, To: current, Changed: false}
	}
	for i, s := range rehireChain {
		if s == current && i+1 < len(rehireChain) {
			return Transition{From: current, To: rehireChain[i+1], Changed: true}
		}
	}
	return Transition{From: current, To: current, Changed: false}
}

func IsTerminal(kind Kind, status Status) bool {
	switch kind {
	case KindPromotion:
		return status == StatusApproved || status == StatusRejected
	case KindRehire:
		return status == StatusCompleted || status == StatusRejected
	}
	return false
}

// PayloadEditable reports whether the payload and effective date may
// still change. Promotions stay editable until decided; rehires freeze
// once submitted into checks.
func PayloadEditable(kind Kind, status Status) bool {
	switch kind {
	case KindPromotion:
		return status == StatusDraft || status == StatusPendingApproval
	case KindRehire:
		return status == StatusDraft
	}
	return false
}

// ApplicableStatus is the status from which a request of the given
// kind becomes due for application.
func ApplicableStatus(kind Kind) Status {
	if kind == KindRehire {
		return StatusCompleted
	}
	return StatusApproved
}

func ValidStatus(kind Kind, status Status) bool {
	switch kind {
	case KindPromotion:
		switch status {
		case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected:
			return true
		}
	case KindRehire:
		switch status {
		case StatusDraft, StatusAwaitingChecks, StatusOffer, StatusOnboarding, StatusCompleted, StatusRejected:
			return true
		}
	}
	return false
}
