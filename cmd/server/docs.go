// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

//go:generate swag init -g docs.go -d .,../../internal/api,../../internal/analytics -o ../../docs

// @title Salondesk API
// @version 1.0
// @description Backend for the salon booking dashboard: Airtable CRUD proxy, analytics, messaging and realtime notifications.
// @description
// @description ## Airtable
// @description
// @description Without AIRTABLE_API_KEY and AIRTABLE_BASE_ID the client list endpoints serve demo data,
// @description the other lists return `[]` and every write answers 503.
// @description
// @description ## Authentication
// @description
// @description When JWT_SECRET is set, every mutating route requires `Authorization: Bearer <token>`.
// @description Issue a token with `salondesk -issue-token <name>`. Reads, health and the gateway webhook stay open.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {"code": "SERVICE_UNAVAILABLE", "message": "Airtable not configured", "request_id": "..."},
// @description   "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/salondesk
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 token signed with JWT_SECRET. Required on write routes when JWT_SECRET is set.
//
// @tag.name Core
// @tag.description Root and health
//
// @tag.name Clients
// @tag.description Client records
//
// @tag.name Booking
// @tag.description Appointments, availability and services
//
// @tag.name Employees
// @tag.description Staff records
//
// @tag.name Analytics
// @tag.description Revenue, appointment, client, service and staff statistics
//
// @tag.name Messaging
// @tag.description Conversations, outbound messages and the gateway webhook
//
// @tag.name Realtime
// @tag.description Dashboard WebSocket
package main
