package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"awstatus/internal/model"
)

// The feed timestamps incident updates in US Pacific time using the
// PST/PDT abbreviations. Both resolve to the same zone database entry
// so the parser picks the standard or daylight offset by date.
var pacific = mustLocation("America/Los_Angeles")

var zoneAliases = map[string]*time.Location{
	"PST": pacific,
	"PDT": pacific,
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Timeline is the ordered incident log extracted from an issue's HTML
// description, with the earliest and latest event instants seen.
type Timeline struct {
	Events []model.TimelineEvent
	Start  time.Time
	End    time.Time
}

// DurationMins returns the minutes between the first and last event.
// An empty timeline has zero duration.
func (t *Timeline) DurationMins() float64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.End.Sub(t.Start).Minutes()
}

// ExtractTimeline parses an issue's HTML description into its timeline.
// Each div block must open with a span holding the update's timestamp
// label; the rest of the block is the update text. Events keep document
// order while Start/End are tracked independently of it. A block with
// no label, or a label that does not parse as a date under the zone
// aliases, fails the whole extraction rather than corrupting the
// duration by dropping entries.
func ExtractTimeline(src string) (*Timeline, error) {
	doc, err := dom.Parse(strings.NewReader(src))
	if err != nil {
		return nil, &ParseError{Field: "timeline", Value: src, Err: err}
	}

	tl := &Timeline{}
	for _, div := range dom.GetElementsByTagName(doc, "div") {
		label, text, err := splitBlock(div)
		if err != nil {
			return nil, &ParseError{Field: "timeline block", Value: dom.TextContent(div), Err: err}
		}

		instant, err := parseEventTime(label)
		if err != nil {
			return nil, &ParseError{Field: "timeline label", Value: label, Err: err}
		}

		tl.Events = append(tl.Events, model.TimelineEvent{Label: label, Text: text})
		if tl.Start.IsZero() || instant.Before(tl.Start) {
			tl.Start = instant
		}
		if tl.End.IsZero() || instant.After(tl.End) {
			tl.End = instant
		}
	}

	return tl, nil
}

// splitBlock detaches the leading span label from a timeline div and
// returns the label and the remaining block text, both trimmed.
func splitBlock(div *html.Node) (string, string, error) {
	spans := dom.GetElementsByTagName(div, "span")
	if len(spans) == 0 {
		return "", "", fmt.Errorf("no timestamp label")
	}

	span := spans[0]
	label := strings.TrimSpace(dom.TextContent(span))
	span.Parent.RemoveChild(span)
	return label, strings.TrimSpace(dom.TextContent(div)), nil
}

// parseEventTime turns a timestamp label into an absolute instant. A
// trailing zone abbreviation is resolved through zoneAliases, then the
// remainder is matched against the label shapes the feed actually
// emits; labels carrying only a clock time are anchored to the current
// date in the resolved zone, matching how the feed labels same-day
// updates. Anything else falls through to dateparse.
func parseEventTime(label string) (time.Time, error) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("empty label")
	}

	loc, ok := zoneAliases[strings.ToUpper(fields[len(fields)-1])]
	if !ok {
		return dateparse.ParseAny(label)
	}

	rest := strings.Join(fields[:len(fields)-1], " ")
	now := clock.Now().In(loc)
	if t, err := time.ParseInLocation("3:04 PM", rest, loc); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if t, err := time.ParseInLocation("Jan 2, 3:04 PM", rest, loc); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if t, err := time.ParseInLocation("Jan 2, 2006 3:04 PM", rest, loc); err == nil {
		return t, nil
	}

	return dateparse.ParseIn(rest, loc)
}
