package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParsePreservesOrderAndTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	p := NewParser(true, zap.NewNop())

	body := "1.2.3.4\n#comment\n5.6.7.8 extra-field\n\n2001:db8::1\n"
	records := p.Parse(body, "ssh", now)

	require.Len(t, records, 3)
	require.Equal(t, "1.2.3.4", records[0].IP)
	require.Equal(t, "5.6.7.8", records[1].IP)
	require.Equal(t, "2001:db8::1", records[2].IP)
	for _, r := range records {
		require.Equal(t, "ssh", r.Service)
		require.Equal(t, Source, r.Source)
		require.Equal(t, now, r.FetchedAt)
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	p := NewParser(true, zap.NewNop())
	body := "# header\n   \n\t\n#10.0.0.1 commented out\n"
	require.Empty(t, p.Parse(body, "mail", time.Now().UTC()))
}

func TestParseStrictDropsInvalidTokens(t *testing.T) {
	t.Parallel()

	p := NewParser(true, zap.NewNop())
	body := "1.2.3.4\nnot-an-ip\n300.1.2.3\n5.6.7.8\n"
	records := p.Parse(body, "ftp", time.Now().UTC())

	require.Len(t, records, 2)
	require.Equal(t, "1.2.3.4", records[0].IP)
	require.Equal(t, "5.6.7.8", records[1].IP)
}

func TestParseLenientKeepsUnvalidatedTokens(t *testing.T) {
	t.Parallel()

	p := NewParser(false, zap.NewNop())
	body := "1.2.3.4\nnot-an-ip\n"
	records := p.Parse(body, "bots", time.Now().UTC())

	require.Len(t, records, 2)
	require.Equal(t, "not-an-ip", records[1].IP)
}

func TestEndpointsFromMapIsOrdered(t *testing.T) {
	t.Parallel()

	endpoints := EndpointsFromMap(DefaultEndpoints())
	require.Len(t, endpoints, 6)

	var services []string
	for _, e := range endpoints {
		services = append(services, e.Service)
		require.NotEmpty(t, e.URL)
	}
	require.Equal(t, []string{"apache", "bots", "ftp", "imap", "mail", "ssh"}, services)
}
