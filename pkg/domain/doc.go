// Package domain defines the shared types that flow between the
// orchestrator, its workflows and the commerce collaborators.
//
// Products, orders, messages and campaigns are fetched fresh every tick;
// nothing here carries identity across ticks.
package domain
