// Package keys issues and stores opaque API keys together with their plan and
// active status.
//
// A key record is created exactly once and its identifier is never reused.
// The plan moves only from free to pro; there is no downgrade path.
//
// # Usage
//
//	svc := keys.NewService(keys.NewMemoryStore())
//
//	rec, err := svc.CreateKey(ctx)
//	if err != nil {
//		return err
//	}
//
//	// later, after a confirmed payment
//	if err := svc.UpgradeToPro(ctx, rec.Key); err != nil {
//		return err
//	}
//
// Storage backends implement Store. MemoryStore lives in this package; durable
// backends live under the store/ directory of the module.
package keys
