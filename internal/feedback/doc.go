// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package feedback accepts user feedback on served recommendations and moves
it towards downstream consumers.

# Acceptance

Acceptor.Submit validates a Feedback value: required fields, a known action,
an optional UUID recommendation id and an ISO-8601 timestamp. The user and
product must be known to the served snapshot. Accepted submissions become
Records and are appended to a Sink.

# Delivery

BadgerStore is the durable Sink. Records are kept under a pending: prefix
until the Forwarder publishes them through a watermill Publisher, then moved
under forwarded:. Publishing goes through a gobreaker circuit breaker and a
token-bucket rate limiter.

The publisher is NATS JetStream (watermill-nats) when enabled, optionally
backed by an EmbeddedServer, and an in-process gochannel otherwise:

	pub, err := feedback.NewPublisher(cfg.NATS, logger)
	fwd, err := feedback.NewForwarder(cfg.Forwarder, store, pub, logger)
	go fwd.Run(ctx)
*/
package feedback
