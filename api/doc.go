// Package api is the HTTP surface of keymeter.
//
// Router mounts the services built by the caller:
//
//	/health                 liveness
//	/health/ready           storage readiness
//	/metrics                Prometheus exposition
//	/keys                   KeyService, optionally throttled per client IP
//	/billing                BillingService
//	/{provider}/webhook     WebhookService, one per billing provider
//	/protected              ProtectedService
//	/admin                  AdminService, only when an admin token is set
//
// Every failure is answered with {"ok": false, "error": {"code", "message"}}.
package api
