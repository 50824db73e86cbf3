package gcal

import (
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	TimeZone    string
}

// EventDetails represents a single Google Calendar event.
type EventDetails struct {
	ID        string
	Summary   string
	StartTime time.Time
	EndTime   time.Time
	AllDay    bool
}

func parseGoogleEventTimes(item *calendar.Event, loc *time.Location) (time.Time, time.Time, bool, error) {
	if item == nil || item.Start == nil || item.End == nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("event is missing start or end")
	}

	// All-day events use Date instead of DateTime.
	if item.Start.Date != "" {
		startDate, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse all-day start date: %w", err)
		}
		endDate, err := time.ParseInLocation("2006-01-02", item.End.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse all-day end date: %w", err)
		}
		return startDate, endDate, true, nil
	}

	if item.Start.DateTime == "" || item.End.DateTime == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("event datetime is missing")
	}

	startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse start datetime: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse end datetime: %w", err)
	}

	return startTime.In(loc), endTime.In(loc), false, nil
}

// ListEventsInRange returns events in a time window from the primary calendar.
func (c *Client) ListEventsInRange(timeMin, timeMax time.Time) ([]EventDetails, error) {
	if c.service == nil {
		return nil, fmt.Errorf("calendar service not initialized")
	}
	if timeMax.Before(timeMin) {
		return nil, fmt.Errorf("invalid range: time_max is before time_min")
	}

	var result []EventDetails
	pageToken := ""
	loc := timeMin.Location()

	for {
		call := c.service.Events.List("primary").
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			ShowDeleted(false).
			OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events in range: %w", err)
		}

		for _, item := range events.Items {
			if item == nil || item.Status == "cancelled" {
				continue
			}

			startTime, endTime, allDay, parseErr := parseGoogleEventTimes(item, loc)
			if parseErr != nil {
				// Skip malformed events rather than failing the whole request.
				continue
			}

			result = append(result, EventDetails{
				ID:        item.Id,
				Summary:   item.Summary,
				StartTime: startTime,
				EndTime:   endTime,
				AllDay:    allDay,
			})
		}

		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}

	return result, nil
}

// CreateEvent creates a new event on the primary calendar and returns its
// browser link. Start and end are sent as zone-naive wall clocks with an
// explicit TimeZone field so Google never shifts them.
func (c *Client) CreateEvent(input EventInput) (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("calendar service not initialized")
	}

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format("2006-01-02T15:04:05"),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format("2006-01-02T15:04:05"),
			TimeZone: input.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.service.Events.Insert("primary", event).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.HtmlLink, nil
}
