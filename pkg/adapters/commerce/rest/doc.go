// Package rest implements the commerce collaborators over the HTTP API
// of the commerce backend (supplier, storefront, ads, customer service).
package rest
