// Package entitlement decides which tier's features apply to a user right now
// and how many invoices the user may still create in the current billing cycle.
//
// The catalog is a closed set of tiers (Free, Premium) with constant feature
// records. NewService refuses to start if a higher tier grants less than a
// lower one for any feature.
//
// Every Service call loads the user's record from a Store, applies a pending
// cycle rollover, and derives the effective tier, so expiry and quota resets
// happen on the next access without a scheduler. Writes go through
// Store.CompareAndSwap, which succeeds only if the record's version did not
// move since it was read. Lost races are retried with a fresh read.
//
// Usage:
//
//	svc, err := entitlement.NewService(store,
//		entitlement.WithLogger(log),
//		entitlement.WithObserver(prommetrics.New(registry)),
//	)
//
//	slot, err := svc.RequestCreationSlot(ctx, userID)
//	if err != nil {
//		return err
//	}
//	if !slot.Allowed {
//		return ErrQuotaExceeded
//	}
//	// insert the invoice, then in the same unit of work:
//	if err := svc.CommitCreation(ctx, userID); err != nil {
//		return err
//	}
//
// A user without a record is treated as Free with no usage. The record is
// created on the first write.
package entitlement
