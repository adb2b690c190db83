package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
)

// RecipientResolver maps a plan holder to the email address that should
// receive usage alerts. Returning an empty address skips the alert.
type RecipientResolver func(ctx context.Context, ref holder.Ref) (string, error)

// featureLabels holds human-readable names for quota features used in
// alert emails. Unknown keys fall back to the raw key.
var featureLabels = map[plan.FeatureKey]string{
	plan.FeatureJobPostings:     "job postings",
	plan.FeatureCVExports:       "CV exports",
	plan.FeatureCVParsing:       "CV parsing",
	plan.FeatureCoachingChats:   "coaching chats",
	plan.FeatureCandidateSearch: "candidate searches",
	plan.FeaturePipelineBoards:  "pipeline boards",
}

var nearLimitTmpl = template.Must(template.New("near_limit").Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>You're close to your {{.Label}} limit</h2>
  <p>You've used {{.Used}} of {{.Cap}} {{.Label}} included in your current billing period.</p>
  <p>Once the limit is reached, further {{.Label}} will be declined until the period renews. Upgrade your plan to raise the limit right away.</p>
</body>
</html>`))

// NearLimitNotifier emails holders when the entitlement engine reports a
// quota crossing its warning threshold. Delivery failures are logged and
// swallowed: an alert must never fail the consume that triggered it.
type NearLimitNotifier struct {
	sender    EmailSender
	recipient RecipientResolver
	logger    *slog.Logger
}

// NewNearLimitNotifier creates a notifier delivering quota warnings over the
// given sender. Panics on nil dependencies to fail fast during initialization.
func NewNearLimitNotifier(sender EmailSender, recipient RecipientResolver, logger *slog.Logger) *NearLimitNotifier {
	if sender == nil {
		panic("notification: EmailSender is required")
	}
	if recipient == nil {
		panic("notification: RecipientResolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NearLimitNotifier{sender: sender, recipient: recipient, logger: logger}
}

// NotifyNearLimit implements entitlement.NearLimitNotifier.
func (n *NearLimitNotifier) NotifyNearLimit(ctx context.Context, ref holder.Ref, ent entitlement.EffectiveEntitlement) {
	addr, err := n.recipient(ctx, ref)
	if err != nil {
		n.logger.Warn("failed to resolve alert recipient",
			slog.String("holder", ref.String()),
			slog.String("error", err.Error()))
		return
	}
	if addr == "" {
		return
	}

	label, ok := featureLabels[ent.Feature]
	if !ok {
		label = string(ent.Feature)
	}

	var body bytes.Buffer
	if err := nearLimitTmpl.Execute(&body, struct {
		Label string
		Used  int64
		Cap   int64
	}{Label: label, Used: ent.Used, Cap: ent.Cap}); err != nil {
		n.logger.Error("failed to render near-limit email",
			slog.String("feature", string(ent.Feature)),
			slog.String("error", err.Error()))
		return
	}

	err = n.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   addr,
		Subject:  fmt.Sprintf("Heads up: %d of %d %s used", ent.Used, ent.Cap, label),
		BodyHTML: body.String(),
		Tag:      "near-limit",
	})
	if err != nil {
		n.logger.Warn("failed to send near-limit alert",
			slog.String("holder", ref.String()),
			slog.String("feature", string(ent.Feature)),
			slog.String("error", err.Error()))
	}
}
