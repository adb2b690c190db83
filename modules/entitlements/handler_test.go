package entitlements_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitkit/billing/modules/entitlements"
	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/reconciler"
	"github.com/recruitkit/billing/pkg/subscription"
	"github.com/recruitkit/billing/pkg/usage"
)

func testPlans(t *testing.T) plan.Catalog {
	t.Helper()

	plans := map[string]plan.Plan{
		"candidate-free": {
			ID:       "candidate-free",
			Product:  plan.ProductCandidate,
			Tier:     plan.TierFree,
			Interval: plan.IntervalMonthly,
			Grants: []plan.Grant{
				{Feature: plan.FeatureCVExports, Kind: plan.KindQuota, Cap: 3},
				{Feature: plan.FeatureCoachingChats, Kind: plan.KindQuota, Cap: 5},
			},
		},
		"recruiting-standard-monthly": {
			ID:       "recruiting-standard-monthly",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierStandard,
			Interval: plan.IntervalMonthly,
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: 10},
				{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle},
			},
		},
		"recruiting-premium-monthly": {
			ID:       "recruiting-premium-monthly",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierPremium,
			Interval: plan.IntervalMonthly,
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: plan.Unlimited},
				{Feature: plan.FeatureCandidateSearch, Kind: plan.KindMetered, Unit: "searches"},
			},
		},
	}

	cat, err := plan.NewMemoryCatalog(plans, "candidate-free")
	require.NoError(t, err)
	return cat
}

type testEnv struct {
	server *httptest.Server
	subs   subscription.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := testPlans(t)
	store := subscription.NewMemoryStore()
	ledger := usage.NewMemoryLedger()

	entSvc := entitlement.NewService(store, catalog, ledger)
	subSvc := subscription.NewService(store, catalog, ledger)
	rec := reconciler.New(store, catalog, ledger)

	router := entitlements.Router(entitlements.RouterOptions{
		Entitlements:  entSvc,
		Subscriptions: subSvc,
		Reconcile:     rec,
		Health:        []func(context.Context) error{func(context.Context) error { return nil }},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, subs: subSvc}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func holderPath(ref holder.Ref) string {
	return fmt.Sprintf("/entitlements/%s/%s", ref.Kind, ref.ID)
}

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}
	_, err := env.subs.Subscribe(context.Background(), ref, "recruiting-standard-monthly")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, holderPath(ref), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].([]any)
	require.True(t, ok, "data should be an array of entitlements")
	require.Len(t, data, 2)

	first := data[0].(map[string]any)
	assert.Equal(t, "job_postings", first["feature"])
	assert.Equal(t, "quota", first["kind"])
	assert.Equal(t, float64(10), first["cap"])
}

func TestResolveDefaultPlanFallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}

	resp, body := env.do(t, http.MethodGet, holderPath(ref), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].([]any)
	require.Len(t, data, 2, "unsubscribed holders resolve against the default plan")
	first := data[0].(map[string]any)
	assert.Equal(t, "cv_exports", first["feature"])
}

func TestResolveInvalidHolder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/entitlements/robot/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_holder", body["code"])

	resp, body = env.do(t, http.MethodGet, "/entitlements/individual/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_holder", body["code"])
}

func TestConsumeCountdownAndDenial(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}

	// Default plan grants 3 cv_exports.
	for want := 2; want >= 0; want-- {
		resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume",
			`{"feature_key":"cv_exports","amount":1}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := body["data"].(map[string]any)
		assert.Equal(t, true, data["allowed"])
		assert.Equal(t, float64(want), data["remaining"])
	}

	// Exhausted: still HTTP 200, denial is an outcome.
	resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"cv_exports","amount":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["allowed"])
	assert.Equal(t, float64(0), data["remaining"])
}

func TestConsumeOmittedAmountDefaultsToOne(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}

	// No amount in the body consumes a single unit.
	resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"cv_exports"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["allowed"])
	assert.Equal(t, float64(2), data["remaining"])

	// An explicit negative amount is still rejected.
	resp, body = env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"cv_exports","amount":-1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_amount", body["code"])
}

func TestConsumeUnlimitedRendersString(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindOrganization, ID: uuid.New()}
	_, err := env.subs.Subscribe(context.Background(), ref, "recruiting-premium-monthly")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"job_postings","amount":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["allowed"])
	assert.Equal(t, "unlimited", data["remaining"])
}

func TestConsumeRejectsNonQuota(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}
	_, err := env.subs.Subscribe(context.Background(), ref, "recruiting-standard-monthly")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"calendar_sync","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_feature_kind", body["code"])

	resp, body = env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"pipeline_boards","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "feature_not_granted", body["code"])
}

func TestConsumeMalformedBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}

	resp, body := env.do(t, http.MethodPost, holderPath(ref)+"/consume", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["code"])
}

func TestSubscriptionLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindBusiness, ID: uuid.New()}
	path := holderPath(ref) + "/subscription"

	// No subscription yet.
	resp, body := env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "subscription_not_found", body["code"])

	// Subscribe.
	resp, body = env.do(t, http.MethodPost, path, `{"plan_id":"recruiting-standard-monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "recruiting-standard-monthly", data["plan_id"])
	assert.Equal(t, "active", data["status"])

	// Duplicate subscribe conflicts.
	resp, body = env.do(t, http.MethodPost, path, `{"plan_id":"recruiting-standard-monthly"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "subscription_exists", body["code"])

	// Upgrade.
	resp, body = env.do(t, http.MethodPut, path, `{"plan_id":"recruiting-premium-monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, "recruiting-premium-monthly", data["plan_id"])

	// Unknown plan.
	resp, body = env.do(t, http.MethodPut, path, `{"plan_id":"no-such-plan"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "plan_not_found", body["code"])

	// Flag cancellation.
	resp, body = env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Equal(t, true, data["cancel_at_period_end"])
}

func TestDowngradeRefusedOverUsage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ref := holder.Ref{Kind: holder.KindIndividual, ID: uuid.New()}
	path := holderPath(ref) + "/subscription"

	resp, _ := env.do(t, http.MethodPost, path, `{"plan_id":"recruiting-premium-monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Burn more job postings than the standard plan's cap of 10.
	resp, _ = env.do(t, http.MethodPost, holderPath(ref)+"/consume",
		`{"feature_key":"job_postings","amount":25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPut, path, `{"plan_id":"recruiting-standard-monthly"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "downgrade_not_possible", body["code"])
}

func TestAdminReconcileEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/admin/reconcile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(0), data["advanced"])
	assert.Equal(t, float64(0), data["canceled"])
	assert.Equal(t, float64(0), data["failed"])
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		resp, body := env.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["code"])
	})

	t.Run("dependency down", func(t *testing.T) {
		t.Parallel()

		catalog := testPlans(t)
		store := subscription.NewMemoryStore()
		ledger := usage.NewMemoryLedger()
		router := entitlements.Router(entitlements.RouterOptions{
			Entitlements:  entitlement.NewService(store, catalog, ledger),
			Subscriptions: subscription.NewService(store, catalog, ledger),
			Health: []func(context.Context) error{
				func(context.Context) error { return errors.New("pg down") },
			},
		})
		srv := httptest.NewServer(router)
		t.Cleanup(srv.Close)

		resp, err := srv.Client().Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
