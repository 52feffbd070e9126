package cache

import "fmt"

const keyPrefix = "ticketly"

// EventListKey covers one page of the public event listing
func EventListKey(page, limit int, search, venue string) string {
	return fmt.Sprintf("%s:events:list:p%d:l%d:s%s:v%s", keyPrefix, page, limit, search, venue)
}

func EventKey(eventID string) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, eventID)
}

func UpcomingEventsKey() string {
	return fmt.Sprintf("%s:events:upcoming", keyPrefix)
}

// TicketTypesKey covers an event's ticket type list with live availability.
// Cached with a short TTL because bookings mutate availability constantly.
func TicketTypesKey(eventID string) string {
	return fmt.Sprintf("%s:events:%s:ticket-types", keyPrefix, eventID)
}

// EventPattern matches every cached entry derived from one event
func EventPattern(eventID string) string {
	return fmt.Sprintf("%s:events:%s*", keyPrefix, eventID)
}

// EventListPattern matches all cached listing pages
func EventListPattern() string {
	return fmt.Sprintf("%s:events:list:*", keyPrefix)
}
