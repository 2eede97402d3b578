// Package workflows defines the four automation workflows driven by the
// orchestrator.
//
// Each workflow is a workers.Spec whose pipeline fetches a fresh batch of
// work from a commerce collaborator and acts on every item:
//   - product_discovery lists the best discovered products and promotes them
//   - order_fulfillment fulfills pending orders through the supplier
//   - customer_service answers unanswered customer messages
//   - ad_optimization reviews existing ad campaigns
//
// Rules maps every workflow to the policy flag that enables it.
package workflows
