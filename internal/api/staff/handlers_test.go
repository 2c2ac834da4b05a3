package staff

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/testutil"
)

func setupStaffTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	InitHandlers(bookings.NewService(database, nil, bookings.Options{
		VenueName:  "House MD Escape Room",
		WindowDays: 30,
		Location:   time.UTC,
		Now:        func() time.Time { return time.Date(2024, time.March, 5, 15, 30, 0, 0, time.UTC) },
	}))
	t.Cleanup(func() { InitHandlers(nil) })

	seed := []db.CreateBookingParams{
		{OrderNumber: "AAAA0001", Name: "Greg House", Email: "house@example.com", Date: "2023-12-30", Time: "14:00", Status: "confirmed"},
		{OrderNumber: "AAAA0002", Name: "Lisa Cuddy", Email: "cuddy@example.com", Date: "2024-03-10", Time: "16:00", Status: "cancelled"},
		{OrderNumber: "AAAA0003", Name: "James Wilson", Email: "wilson@example.com", Date: "2024-03-12", Time: "18:00", Status: "pending"},
		{OrderNumber: "AAAA0004", Name: "Allison Cameron", Email: "cameron@example.com", Date: "2024-04-01", Time: "20:00", Status: "confirmed"},
	}
	for _, params := range seed {
		params.Phone = "+16502530000"
		params.NumberOfPeople = 4
		if _, err := database.Queries.CreateBooking(context.Background(), params); err != nil {
			t.Fatalf("seed booking %s: %v", params.OrderNumber, err)
		}
	}
	return database
}

func getList(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func orderNumbers(body string) []string {
	var found []string
	for _, order := range []string{"AAAA0001", "AAAA0002", "AAAA0003", "AAAA0004"} {
		if strings.Contains(body, `id="booking-`+order+`"`) {
			found = append(found, order)
		}
	}
	return found
}

func TestHandleBookingsPage(t *testing.T) {
	setupStaffTest(t)

	recorder := getList(t, HandleBookingsPage, PagePath)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, want := range []string{
		"<title>Bookings | House MD Escape Room</title>",
		`id="bookingFilters"`,
		`<p class="result-count">4 bookings</p>`,
		`<td>Lisa Cuddy</td><td>cuddy@example.com</td><td>2024-03-10</td><td>4:00 PM</td><td>4</td>`,
		`<a class="date-period" href="/staff/bookings?date=2023"`,
		`<a class="date-period" href="/staff/bookings?date=2024"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %s", want, body)
		}
	}
	if strings.Index(body, "AAAA0004") > strings.Index(body, "AAAA0001") {
		t.Fatal("expected newest booking first")
	}
}

func TestHandleBookingList_Filters(t *testing.T) {
	setupStaffTest(t)

	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{name: "all", query: url.Values{}, want: "AAAA0001,AAAA0002,AAAA0003,AAAA0004"},
		{name: "status", query: url.Values{"status": {"confirmed"}}, want: "AAAA0001,AAAA0004"},
		{name: "year", query: url.Values{"date": {"2024"}}, want: "AAAA0002,AAAA0003,AAAA0004"},
		{name: "month", query: url.Values{"date": {"2024-03"}}, want: "AAAA0002,AAAA0003"},
		{name: "day", query: url.Values{"date": {"2024-03-12"}}, want: "AAAA0003"},
		{name: "status and month", query: url.Values{"status": {"cancelled"}, "date": {"2024-03"}}, want: "AAAA0002"},
		{name: "order number", query: url.Values{"q": {"aaaa0004"}}, want: "AAAA0004"},
		{name: "name", query: url.Values{"q": {"wilson"}}, want: "AAAA0003"},
		{name: "email", query: url.Values{"q": {"house@"}}, want: "AAAA0001"},
		{name: "no match", query: url.Values{"q": {"chase"}}, want: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			recorder := getList(t, HandleBookingList, ListPath+"?"+test.query.Encode())
			if recorder.Code != http.StatusOK {
				t.Fatalf("status = %d", recorder.Code)
			}
			body := recorder.Body.String()
			if !strings.HasPrefix(body, `<div id="staffBookingList"`) {
				t.Fatalf("expected list partial, got %s", body)
			}
			if got := strings.Join(orderNumbers(body), ","); got != test.want {
				t.Fatalf("orders = %q, want %q", got, test.want)
			}
		})
	}
}

func TestHandleBookingList_DateHierarchy(t *testing.T) {
	setupStaffTest(t)

	body := getList(t, HandleBookingList, ListPath+"?date=2024&status=confirmed").Body.String()
	for _, want := range []string{
		`<a class="date-crumb" href="/staff/bookings?status=confirmed" hx-get="/api/v1/staff/bookings?status=confirmed"`,
		`href="/staff/bookings?date=2024-03&amp;status=confirmed"`,
		`>March 2024</a>`,
		`>April 2024</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %s", want, body)
		}
	}

	body = getList(t, HandleBookingList, ListPath+"?date=2024-03-10").Body.String()
	for _, want := range []string{">All dates</a>", ">2024</a>", ">March 2024</a>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %s", want, body)
		}
	}
	if strings.Contains(body, "date-period") {
		t.Fatalf("day level should not drill further: %s", body)
	}
}

func TestHandleBookingList_InvalidFilter(t *testing.T) {
	setupStaffTest(t)

	for _, query := range []string{"status=archived", "date=2024-13", "date=March"} {
		recorder := getList(t, HandleBookingList, ListPath+"?"+query)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", query, recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), `role="alert"`) {
			t.Fatalf("%s: missing error notice in %s", query, recorder.Body.String())
		}
	}
}

func postStatus(orderNumber, status string, htmxRequest bool) *httptest.ResponseRecorder {
	form := url.Values{"status": {status}}
	req := httptest.NewRequest(http.MethodPost, ListPath+"/"+orderNumber+"/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmxRequest {
		req.Header.Set("HX-Request", "true")
	}
	req.SetPathValue(orderNumberParam, orderNumber)
	recorder := httptest.NewRecorder()
	HandleSetStatus(recorder, req)
	return recorder
}

func TestHandleSetStatus(t *testing.T) {
	database := setupStaffTest(t)

	recorder := postStatus("AAAA0003", "confirmed", true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.HasPrefix(recorder.Body.String(), `<tr id="booking-AAAA0003" class="status-confirmed">`) {
		t.Fatalf("unexpected row: %s", recorder.Body.String())
	}
	stored, err := database.Queries.GetBookingByOrderNumber(context.Background(), "AAAA0003")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if stored.Status != "confirmed" {
		t.Fatalf("stored status = %q", stored.Status)
	}

	if recorder := postStatus("AAAA0003", "archived", true); recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid status code = %d", recorder.Code)
	}
	if recorder := postStatus("ZZZZ9999", "cancelled", true); recorder.Code != http.StatusNotFound {
		t.Fatalf("missing booking code = %d", recorder.Code)
	}
}

func TestHandleSetStatus_SlotTaken(t *testing.T) {
	database := setupStaffTest(t)
	if _, err := database.Queries.CreateBooking(context.Background(), db.CreateBookingParams{
		OrderNumber: "BBBB0001", Name: "Robert Chase", Email: "chase@example.com", Phone: "+16502530000",
		Date: "2024-03-10", Time: "16:00", NumberOfPeople: 2, Status: "confirmed",
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	recorder := postStatus("AAAA0002", "confirmed", true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("htmx status = %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `class="status-cancelled"`) || !strings.Contains(body, "Another booking now holds this time slot.") {
		t.Fatalf("unexpected row: %s", body)
	}

	if recorder := postStatus("AAAA0002", "confirmed", false); recorder.Code != http.StatusConflict {
		t.Fatalf("plain status = %d", recorder.Code)
	}
}

func TestHandlers_Uninitialized(t *testing.T) {
	InitHandlers(nil)

	recorder := getList(t, HandleBookingList, ListPath)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
}
