// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

// mockClients is served by the client list endpoints when Airtable is not
// configured, so the dashboard can be demoed without credentials.
func mockClients() []ClientRecord {
	return []ClientRecord{
		{
			ID:               "mock1",
			Name:             "Sarah Johnson",
			Email:            "sarah@example.com",
			Phone:            "+1 (555) 123-4567",
			LastVisit:        "2024-01-15",
			PreferredService: "Hair Cut & Color",
			TotalVisits:      12,
			TotalSpent:       1450.0,
			Tags:             []string{"VIP", "Regular"},
			Notes:            "Prefers Jessica as stylist",
			CreatedAt:        "2024-01-01T00:00:00Z",
		},
		{
			ID:               "mock2",
			Name:             "Mike Chen",
			Email:            "mike@example.com",
			Phone:            "+1 (555) 987-6543",
			LastVisit:        "2024-01-10",
			PreferredService: "Beard Trim",
			TotalVisits:      8,
			TotalSpent:       320.0,
			Tags:             []string{"Regular"},
			Notes:            "Usually books on weekends",
			CreatedAt:        "2024-01-02T00:00:00Z",
		},
	}
}
