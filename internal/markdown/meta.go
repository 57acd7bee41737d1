package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/starford/quire/internal/models"
)

var (
	metaBeginRe = regexp.MustCompile(`^-{3}(\s.*)?$`)
	metaEndRe   = regexp.MustCompile(`^(-{3}|\.{3})(\s.*)?$`)
	metaLineRe  = regexp.MustCompile(`^[ ]{0,3}([A-Za-z0-9_-]+):\s*(.*)$`)
	metaMoreRe  = regexp.MustCompile(`^[ ]{4,}(.*)$`)
)

// ErrEmptyDate is returned when a date key is present without a value.
var ErrEmptyDate = errors.New("empty date")

// Naive layouts are interpreted in the converter's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// splitMeta separates the leading key/value block from the body. Keys are
// lowercased and repeated or continued values are collected in order.
func splitMeta(src string) (map[string][]string, []string, string) {
	lines := strings.Split(src, "\n")
	if len(lines) > 0 && metaBeginRe.MatchString(lines[0]) {
		lines = lines[1:]
	}

	meta := make(map[string][]string)
	var order []string
	key := ""
	for len(lines) > 0 {
		line := lines[0]
		lines = lines[1:]
		if strings.TrimSpace(line) == "" || metaEndRe.MatchString(line) {
			break
		}
		if m := metaLineRe.FindStringSubmatch(line); m != nil {
			key = strings.ToLower(strings.TrimSpace(m[1]))
			if _, seen := meta[key]; !seen {
				order = append(order, key)
			}
			meta[key] = append(meta[key], strings.TrimSpace(m[2]))
			continue
		}
		if m := metaMoreRe.FindStringSubmatch(line); m != nil && key != "" {
			meta[key] = append(meta[key], strings.TrimSpace(m[1]))
			continue
		}
		// First line that is not metadata belongs to the body.
		lines = append([]string{line}, lines...)
		break
	}
	return meta, order, strings.Join(lines, "\n")
}

func (c *Converter) typedMeta(raw map[string][]string, order []string) (models.Metadata, error) {
	out := make(models.Metadata, len(raw))
	for _, key := range order {
		value := strings.Join(raw[key], "\n")
		switch key {
		case "date":
			t, err := ParseDate(value, c.loc)
			if err != nil {
				return nil, err
			}
			out[key] = models.Time(t)
		case "tags":
			out[key] = models.List(ParseTags(value))
		default:
			out[key] = models.String(value)
		}
	}
	return out, nil
}

// ParseDate parses an ISO-8601 date or date-time and returns it in loc.
// Values without an offset are taken to be in loc already.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// ParseTags splits a comma separated list, trimming and lowercasing each
// element. Empty elements are dropped; duplicates are kept.
func ParseTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		tags = append(tags, p)
	}
	return tags
}
