// Package plan defines the plan catalog: product/tier/interval combinations
// and the entitlement grants (toggle, quota, metered) they carry.
//
// The catalog is read-only at runtime. Two sources are provided: an in-memory
// map for tests and embedded defaults, and a YAML file for deployments.
//
// Example:
//
//	catalog, err := plan.LoadYAMLCatalog("plans.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	free, _ := catalog.ByID(ctx, catalog.DefaultPlanID())
package plan
