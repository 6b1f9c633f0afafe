// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

/*
Package main is the entry point for the Salondesk server.

Salondesk is the backend of a salon and spa booking dashboard. It proxies
CRUD calls to Airtable, computes business analytics from the appointment,
client, service and employee tables, relays WhatsApp-style messages through
an HTTP gateway and pushes new messages to the dashboard over a WebSocket.

# Supervisor Tree

	RootSupervisor ("salondesk")
	├── DataSupervisor ("data-layer")
	│   └── conversation store (BadgerDB)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── embedded NATS (NATS_EMBEDDED=true)
	│   ├── notifier (Watermill gochannel or NATS)
	│   ├── WebSocket hub
	│   └── notification forwarder
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi)

Initialization order:

 1. Configuration: koanf (defaults, YAML, .env, environment)
 2. Logging: zerolog
 3. Airtable client, name cache and analytics engine
 4. Messaging gateway client and conversation store
 5. Notifier (optionally behind an embedded NATS server)
 6. WebSocket hub and forwarder
 7. HTTP router
 8. Supervisor tree

# Configuration

	HTTP_PORT=8001
	AIRTABLE_API_KEY=pat...
	AIRTABLE_BASE_ID=app...
	AIRTABLE_TABLE_NAME="Table 1"
	MESSAGING_GATEWAY_URL=https://gateway.example.com/send
	MESSAGING_WEBHOOK_SECRET=...
	CONVERSATIONS_DIR=/var/lib/salondesk/conversations
	NATS_URL=nats://localhost:4222   # or NATS_EMBEDDED=true
	JWT_SECRET=<32+ chars>
	LOG_LEVEL=info
	LOG_FORMAT=json

A .env file in the working directory (or DOTENV_PATH) is loaded first;
variables already set in the environment win.

# Flags

	-issue-token NAME   print a bearer token for NAME and exit (needs JWT_SECRET)
	-token-ttl DURATION token lifetime (default 24h)
*/
package main
