// Package feed defines blocklist records, the endpoint table, and the
// line-oriented parser that turns raw list bodies into records.
package feed

import (
	"sort"
	"time"
)

// Source labels the feed family every record originates from.
const Source = "blocklist.de/lists"

// Record is one validated entry derived from a single list line.
// Records are immutable after construction; all records parsed from one
// body share the same FetchedAt timestamp.
type Record struct {
	IP        string    `bson:"ip" json:"ip"`
	Service   string    `bson:"service" json:"service"`
	Source    string    `bson:"source" json:"source"`
	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}

// Endpoint names one remote list source.
type Endpoint struct {
	Service string
	URL     string
}

// EndpointsFromMap converts a service-name to URL mapping into a slice
// ordered by service name, so a run always visits endpoints in the same
// order regardless of map iteration.
func EndpointsFromMap(m map[string]string) []Endpoint {
	endpoints := make([]Endpoint, 0, len(m))
	for service, url := range m {
		endpoints = append(endpoints, Endpoint{Service: service, URL: url})
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].Service < endpoints[j].Service
	})
	return endpoints
}

// DefaultEndpoints returns the blocklist.de list table used when no
// endpoint mapping is configured.
func DefaultEndpoints() map[string]string {
	return map[string]string{
		"ssh":    "https://lists.blocklist.de/lists/ssh.txt",
		"mail":   "https://lists.blocklist.de/lists/mail.txt",
		"apache": "https://lists.blocklist.de/lists/apache.txt",
		"imap":   "https://lists.blocklist.de/lists/imap.txt",
		"ftp":    "https://lists.blocklist.de/lists/ftp.txt",
		"bots":   "https://lists.blocklist.de/lists/bots.txt",
	}
}
