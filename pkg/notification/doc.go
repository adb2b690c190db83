// Package notification delivers usage alerts to plan holders.
//
// The package wraps an EmailSender abstraction with a Postmark-backed
// implementation for production and a filesystem DevSender for local work.
// Its NearLimitNotifier renders and sends the quota warning email the
// entitlement engine fires when a holder crosses the near-limit threshold.
package notification
