// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package api provides the HTTP REST API of the recommendation server.

Routes:

	GET  /                                                     welcome message
	GET  /ping                                                 {"message":"pong"}
	GET  /health/live, /health/ready                           probes
	GET  /metrics                                              Prometheus
	GET  /api/v1/ecommerce/recommendation/user/{user_id}       top-N for a user
	GET  /api/v1/ecommerce/recommendation/product/{product_id} similar products
	POST /api/v1/ecommerce/recommendation/feedback             feedback submission
	POST /api/v1/admin/interactions                            incremental update (admin)
	POST /api/v1/admin/snapshot/reload                         reload newest stored snapshot (admin)
	GET  /api/v1/admin/snapshot                                served snapshot info (admin)

Recommendation routes take N (1..MaxN, default 10) and strict. Unknown ids
are served the fallback list unless strict=true, which answers 404.

Every /api response uses the APIResponse envelope:

	{
	  "success": true,
	  "data": {"items": [...], "source": "personalized", "fallback_reason": "none", "snapshot_version": 3},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 1}
	}

Middleware: request ids, real IP, panic recovery, Prometheus metrics, go-chi/cors,
per-IP go-chi/httprate limits, security headers, request timeouts and
compression on the public API, bearer-token admin auth.
*/
package api
