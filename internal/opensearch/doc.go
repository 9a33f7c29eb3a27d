// Package opensearch ships run results to an OpenSearch cluster for
// dashboarding.
//
// Ingestion uses the bulk NDJSON API: one document per finding plus one
// run summary document per run. Delivery is best-effort; the caller
// treats an ingestion error as a warning, never as a run failure.
package opensearch
