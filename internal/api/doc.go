// Package api provides a REST client for the options analytics service
// that publishes gamma exposure profiles. The engine polls it periodically
// through gamma.Poller; a dead or misconfigured endpoint degrades the
// pipeline to unadjusted confidences rather than stopping it.
package api
