package repository

import (
	"strings"
	"testing"
)

func TestCalendarQueriesAreTenantScoped(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		fragment string
	}{
		{"countOnDate", countOnDateQuery, "where tenant_id = $1 and fecha = $2"},
		{"getByID", getByIDQuery, "where id = $1 and tenant_id = $2"},
		{"update", updateQuery, "where id = $1 and tenant_id = $2"},
		{"delete", deleteQuery, "where id = $1 and tenant_id = $2"},
		{"listOccupied", listOccupiedQuery, "where c.tenant_id = $1"},
		{"upcoming", upcomingQuery, "where tenant_id = $1"},
		{"years", yearsQuery, "where tenant_id = $1"},
		{"deleteYearEntries", deleteYearEntriesQuery, "where tenant_id = $1"},
		{"deleteYearColor", deleteYearColorQuery, "where tenant_id = $1"},
		{"yearColors", yearColorsQuery, "where tenant_id = $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := strings.ToLower(strings.Join(strings.Fields(tt.query), " "))
			if !strings.Contains(query, tt.fragment) {
				t.Fatalf("expected tenant-scoped fragment %q in query:\n%s", tt.fragment, tt.query)
			}
		})
	}
}

func TestReserveHoldIsConflictKeyed(t *testing.T) {
	query := strings.ToLower(strings.Join(strings.Fields(reserveHoldQuery), " "))
	if !strings.Contains(query, "on conflict (tenant_id, fecha) where is_hold do nothing") {
		t.Fatal("hold insert must be conditioned on the partial (tenant_id, fecha) hold index")
	}
	if !strings.Contains(query, "where not exists") {
		t.Fatal("hold insert must check the date is still empty")
	}
}
