package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleService implements Service on top of the Google Calendar API using a
// service account with domain-wide delegation (the impersonated user owns
// the events).
type GoogleService struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleService builds the Calendar client from a service-account key
// file, acting as the given workspace user. calendarID is usually "primary".
func NewGoogleService(ctx context.Context, credentialsFile, impersonate, calendarID string) (*GoogleService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("calendar: read credentials: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse credentials: %w", err)
	}
	jwtCfg.Subject = impersonate
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("calendar: new service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleService{svc: svc, calendarID: calendarID}, nil
}

func (g *GoogleService) CreateRecurring(ctx context.Context, ev Event, notify bool) (string, error) {
	created, err := g.svc.Events.Insert(g.calendarID, toGoogleEvent(ev)).
		SendUpdates(sendUpdates(notify)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleService) UpdateRecurring(ctx context.Context, eventID string, ev Event, notify bool) (string, error) {
	updated, err := g.svc.Events.Update(g.calendarID, eventID, toGoogleEvent(ev)).
		SendUpdates(sendUpdates(notify)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: update event %s: %w", eventID, err)
	}
	return updated.Id, nil
}

func (g *GoogleService) Delete(ctx context.Context, eventID string) error {
	err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isGone(err) {
		return fmt.Errorf("calendar: delete event %s: %w", eventID, err)
	}
	return nil
}

func (g *GoogleService) Get(ctx context.Context, eventID string) (*Event, error) {
	ev, err := g.svc.Events.Get(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: get event %s: %w", eventID, err)
	}
	return fromGoogleEvent(ev)
}

func (g *GoogleService) Occurrences(ctx context.Context, eventID string) ([]Occurrence, error) {
	var out []Occurrence
	pageToken := ""
	for {
		call := g.svc.Events.Instances(g.calendarID, eventID).ShowDeleted(true).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("calendar: list instances of %s: %w", eventID, err)
		}
		for _, inst := range page.Items {
			occ := Occurrence{ID: inst.Id, Cancelled: inst.Status == "cancelled"}
			if inst.Start != nil {
				occ.Date = inst.Start.Date
				occ.DateTime = inst.Start.DateTime
			}
			out = append(out, occ)
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func (g *GoogleService) CancelOccurrence(ctx context.Context, occ Occurrence, notify bool) error {
	patch := &gcal.Event{Status: "cancelled"}
	_, err := g.svc.Events.Patch(g.calendarID, occ.ID, patch).
		SendUpdates(sendUpdates(notify)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("calendar: cancel occurrence %s: %w", occ.ID, err)
	}
	return nil
}

func (g *GoogleService) CreateStandalone(ctx context.Context, ev Event, notify bool) (string, error) {
	ev.Recurrence = ""
	created, err := g.svc.Events.Insert(g.calendarID, toGoogleEvent(ev)).
		SendUpdates(sendUpdates(notify)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert standalone event: %w", err)
	}
	return created.Id, nil
}

func sendUpdates(notify bool) string {
	if notify {
		return "all"
	}
	return "none"
}

// isGone treats 404/410 on delete as success: the event is already absent.
func isGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

func toGoogleEvent(ev Event) *gcal.Event {
	// The stored class times are wall-clock values in the event's timezone,
	// but their time.Time carrier is UTC-anchored. Emit them zoneless so the
	// TimeZone field defines the instant; an explicit offset would win and
	// shift the event.
	out := &gcal.Event{
		Summary:     ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format("2006-01-02T15:04:05"),
			TimeZone: ev.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format("2006-01-02T15:04:05"),
			TimeZone: ev.TimeZone,
		},
	}
	if ev.Recurrence != "" {
		out.Recurrence = []string{ev.Recurrence}
	}
	for _, email := range ev.Attendees {
		out.Attendees = append(out.Attendees, &gcal.EventAttendee{Email: email})
	}
	return out
}

func fromGoogleEvent(ev *gcal.Event) (*Event, error) {
	out := &Event{
		Summary:     ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
	}
	if len(ev.Recurrence) > 0 {
		out.Recurrence = ev.Recurrence[0]
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, a.Email)
	}
	if ev.Start != nil {
		out.TimeZone = ev.Start.TimeZone
		start, err := parseEventTime(ev.Start)
		if err != nil {
			return nil, err
		}
		out.Start = start
	}
	if ev.End != nil {
		end, err := parseEventTime(ev.End)
		if err != nil {
			return nil, err
		}
		out.End = end
	}
	return out, nil
}

func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	return time.Parse("2006-01-02", edt.Date)
}
