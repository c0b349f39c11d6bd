package feed

import (
	"net/netip"
	"strings"
	"time"

	"go.uber.org/zap"
)

const commentMarker = "#"

// Parser converts raw list bodies into records. When validation is
// enabled, lines whose first token is not a syntactically valid IPv4 or
// IPv6 address are dropped with a warning.
type Parser struct {
	validate bool
	logger   *zap.Logger
}

// NewParser builds a Parser. The logger is required.
func NewParser(validate bool, logger *zap.Logger) *Parser {
	return &Parser{
		validate: validate,
		logger:   logger,
	}
}

// Parse splits body into lines and returns one Record per non-blank,
// non-comment line, in input order. The first whitespace-delimited
// token of each line is the candidate address; trailing fields are
// ignored. Every returned record carries the same fetchedAt timestamp.
func (p *Parser) Parse(body, service string, fetchedAt time.Time) []Record {
	var records []Record
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		token := strings.Fields(line)[0]
		if p.validate {
			if _, err := netip.ParseAddr(token); err != nil {
				p.logger.Warn("invalid address skipped",
					zap.String("token", token),
					zap.String("service", service),
				)
				continue
			}
		}
		records = append(records, Record{
			IP:        token,
			Service:   service,
			Source:    Source,
			FetchedAt: fetchedAt,
		})
	}
	return records
}
