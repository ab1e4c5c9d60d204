package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/dom"
	"go.uber.org/zap"

	"awstatus/internal/feed"
	"awstatus/internal/model"
)

// ParseError reports a raw record field that does not match the shape
// the feed is expected to produce. It is fatal for that record.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q: no match", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Composite identifiers look like "lambda" or "lambda-eu-west-1": a
// lowercase alphanumeric service code, then an optional hyphen-joined
// region code.
var serviceCodePattern = regexp.MustCompile(`^([a-z0-9]+)-*([a-z0-9-]*)$`)

const dateLayout = "2006-01-02 15:04:05"

// Normalizer turns raw feed records into Issue entities.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil logger silences the
// degradable-failure warnings.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Issue normalizes one raw record. The composite identifier and the
// timeline must parse; a cosmetic display-name failure degrades to the
// raw name instead of failing the record.
func (n *Normalizer) Issue(raw feed.RawIssue) (model.Issue, error) {
	m := serviceCodePattern.FindStringSubmatch(raw.Service)
	if m == nil {
		return model.Issue{}, &ParseError{Field: "service identifier", Value: raw.Service}
	}
	serviceCode, regionCode := m[1], m[2]

	serviceName, regionName := n.splitDisplayName(raw.ServiceName)

	description, err := htmlText(raw.Description)
	if err != nil {
		return model.Issue{}, &ParseError{Field: "description", Value: raw.Service, Err: err}
	}

	tl, err := ExtractTimeline(raw.Description)
	if err != nil {
		return model.Issue{}, err
	}

	ts := int64(raw.Date)
	return model.Issue{
		ServiceName:  serviceName,
		RegionName:   regionName,
		ServiceCode:  serviceCode,
		RegionCode:   regionCode,
		Summary:      raw.Summary,
		Timestamp:    ts,
		Date:         time.Unix(ts, 0).UTC().Format(dateLayout),
		Description:  description,
		Timeline:     tl.Events,
		DurationMins: tl.DurationMins(),
	}, nil
}

// splitDisplayName separates "AWS Lambda (EU-WEST-1)" into name and
// region. Display names are cosmetic, so a malformed one is logged and
// used as-is rather than failing the record.
func (n *Normalizer) splitDisplayName(name string) (string, string) {
	parts := strings.SplitN(name, " (", 2)
	if len(parts) == 1 {
		return name, ""
	}
	if !strings.HasSuffix(parts[1], ")") {
		n.logger.Warn("malformed display name", zap.String("service_name", name))
	}
	return parts[0], strings.ReplaceAll(parts[1], ")", "")
}

// htmlText strips markup from an HTML fragment, keeping text content.
func htmlText(src string) (string, error) {
	doc, err := dom.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	return dom.TextContent(doc), nil
}
