// Package health serves liveness and readiness probes.
//
// LivenessHandler always answers OK. ReadinessHandler runs every named check
// concurrently under one shared timeout and answers 503 when any of them
// fails. Both reply in plain text unless the client asks for JSON with
// ?format=json or an Accept header.
//
// The email service registers the PostgreSQL pool, the job queue and, when
// configured, Redis as readiness checks.
package health
