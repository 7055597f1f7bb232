// Package billing turns payment provider traffic into plan upgrades.
//
// A Provider wraps one payment processor SDK: it creates hosted checkout
// links tagged with the API key and verifies and classifies webhook
// deliveries. StripeProvider and PaddleProvider are the implementations.
//
// Service sits on top of a Provider and the key store. CreateCheckout makes
// sure the key exists before sending the customer to the processor, and
// HandlePaymentEvent upgrades the key named in a verified payment-completed
// event to the pro plan. Upgrading is idempotent, so repeated deliveries of
// the same event leave the store unchanged.
//
// Unverifiable deliveries never touch the store. Events of any other type,
// and completed payments without an API key in their metadata, are
// acknowledged without side effects so the processor stops retrying them.
package billing
