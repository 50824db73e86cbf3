package gcal

import (
	"fmt"
)

// GetTimezone returns the primary calendar's configured timezone.
func (c *Client) GetTimezone() (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("not authenticated")
	}

	cal, err := c.service.Calendars.Get("primary").Do()
	if err != nil {
		return "", fmt.Errorf("failed to get calendar: %w", err)
	}

	return cal.TimeZone, nil
}

// UpdateTimezone sets the primary calendar's timezone and returns the value
// the API reports back. A no-op when the calendar already matches.
func (c *Client) UpdateTimezone(timezone string) (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("not authenticated")
	}

	cal, err := c.service.Calendars.Get("primary").Do()
	if err != nil {
		return "", fmt.Errorf("failed to get calendar: %w", err)
	}

	if cal.TimeZone == timezone {
		return cal.TimeZone, nil
	}

	cal.TimeZone = timezone
	updated, err := c.service.Calendars.Update("primary", cal).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update calendar timezone: %w", err)
	}

	return updated.TimeZone, nil
}
