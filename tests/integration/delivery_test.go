//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"
)

func TestDeliveryLocations(t *testing.T) {
	resp := doGet(t, "/api/delivery/locations")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[locationsResponse](t, resp)
	if len(body.Locations) == 0 {
		t.Fatal("no delivery locations")
	}
	if body.Locations[0] != "Lancashire" {
		t.Errorf("first location: got %q, want Lancashire", body.Locations[0])
	}
}

func TestDeliveryDates(t *testing.T) {
	resp := doGet(t, "/api/delivery/Lancashire/dates")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[datesResponse](t, resp)
	if len(body.Dates) == 0 {
		t.Fatal("no delivery dates offered")
	}

	// Lancashire delivers Monday, Wednesday, and Friday only.
	for _, d := range body.Dates {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("unparseable date %q: %v", d, err)
		}
		switch day.Weekday() {
		case time.Monday, time.Wednesday, time.Friday:
		default:
			t.Errorf("date %s falls on %s", d, day.Weekday())
		}
	}
}

func TestDeliveryDates_UnknownLocation(t *testing.T) {
	resp := doGet(t, "/api/delivery/Atlantis/dates")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeliveryPostcode(t *testing.T) {
	t.Run("served", func(t *testing.T) {
		resp := doPost(t, "/api/delivery/Lancashire/postcode", map[string]string{"postcode": "pr1 2ab"})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		body := decodeJSON[postcodeResponse](t, resp)
		if !body.Valid {
			t.Fatalf("postcode rejected: %s", body.Reason)
		}
		if body.Postcode != "PR12AB" {
			t.Errorf("normalized postcode: got %q, want PR12AB", body.Postcode)
		}
	})

	t.Run("outside the area", func(t *testing.T) {
		resp := doPost(t, "/api/delivery/Lancashire/postcode", map[string]string{"postcode": "SW1A 1AA"})
		defer resp.Body.Close()

		body := decodeJSON[postcodeResponse](t, resp)
		if body.Valid {
			t.Fatal("postcode outside the delivery area accepted")
		}
	})
}
