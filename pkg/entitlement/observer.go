package entitlement

// Observer receives notifications about entitlement decisions.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	SlotRequested(effective Tier, allowed bool)
	CreationCommitted(effective Tier)
	SlotReleased(decremented bool)
	CycleRolledOver(tier Tier)
	UpdateConflict()
}

type noopObserver struct{}

func (noopObserver) SlotRequested(Tier, bool) {}
func (noopObserver) CreationCommitted(Tier)   {}
func (noopObserver) SlotReleased(bool)        {}
func (noopObserver) CycleRolledOver(Tier)     {}
func (noopObserver) UpdateConflict()          {}
