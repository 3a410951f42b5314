package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/law-makers/scentcrawl/internal/site"
	urlutil "github.com/law-makers/scentcrawl/internal/utils/url"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDatasheetControlWait = 5 * time.Second
	DefaultDatasheetWait        = 5 * time.Second
)

type datasheetPair struct {
	Title string `json:"title"`
	Value any    `json:"value"`
}

type datasheetItem struct {
	datasheetPair
	Props *datasheetPair `json:"props"`
}

type datasheetEnvelope struct {
	Name  string `json:"name"`
	Props struct {
		Items []datasheetItem `json:"items"`
	} `json:"props"`
}

// IsDatasheet accepts responses carrying the technical sheet envelope
func IsDatasheet(resp browser.Response) bool {
	var probe struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body, &probe); err != nil {
		return false
	}
	return probe.Name == site.DatasheetPayloadName
}

// ParseDatasheet flattens a technical sheet payload into title/value fields.
// List values are joined with ", ". Items without a title or value are skipped.
func ParseDatasheet(body []byte) (models.Record, error) {
	var env datasheetEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode datasheet: %w", err)
	}
	if env.Name != site.DatasheetPayloadName {
		return nil, fmt.Errorf("unexpected payload %q", env.Name)
	}

	rec := models.Record{}
	for _, item := range env.Props.Items {
		pair := item.datasheetPair
		if item.Props != nil {
			pair = *item.Props
		}
		title := strings.TrimSpace(pair.Title)
		if title == "" || pair.Value == nil {
			continue
		}
		rec[title] = flattenValue(pair.Value)
	}
	return rec, nil
}

func flattenValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	parts := make([]string, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		if f, ok := e.(float64); ok {
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
			continue
		}
		parts = append(parts, fmt.Sprint(e))
	}
	return strings.Join(parts, ", ")
}

// DatasheetExtractor opens an item's technical sheet and captures the payload
// the site fetches in response.
type DatasheetExtractor struct {
	ControlWait time.Duration
	PayloadWait time.Duration
}

// NewDatasheetExtractor creates a DatasheetExtractor; zero waits take defaults
func NewDatasheetExtractor(controlWait, payloadWait time.Duration) *DatasheetExtractor {
	if controlWait <= 0 {
		controlWait = DefaultDatasheetControlWait
	}
	if payloadWait <= 0 {
		payloadWait = DefaultDatasheetWait
	}
	return &DatasheetExtractor{ControlWait: controlWait, PayloadWait: payloadWait}
}

// Watch subscribes sess to technical sheet payloads. Call it before
// navigating so a sheet fetched during page load is not missed.
func (e *DatasheetExtractor) Watch(sess browser.Interceptor) browser.Subscription {
	return sess.OnResponse(IsDatasheet)
}

// Extract returns the dynamic fields of the item loaded in sess, using a
// subscription from Watch. Without a captured payload the record is empty.
// A missing control is not an error: the sheet may already be on its way.
func (e *DatasheetExtractor) Extract(ctx context.Context, sess browser.Page, sub browser.Subscription, pageURL string) models.Record {
	logger := log.With().Str("url", pageURL).Logger()

	name, out := sess.Text(ctx, site.TitleElement, e.ControlWait)
	if out != browser.Found || name == "" {
		name = urlutil.LastPathSegment(pageURL)
	}

	if control, out := sess.Locate(ctx, site.DatasheetControl, e.ControlWait); out == browser.Found {
		if clicked := sess.Click(ctx, control); clicked != browser.Found {
			logger.Debug().Stringer("outcome", clicked).Msg("Datasheet control click did not land")
		}
	} else {
		logger.Debug().Stringer("outcome", out).Msg("Datasheet control not found")
	}

	body, out := sub.WaitForMatch(ctx, e.PayloadWait)
	if out != browser.Found {
		logger.Debug().Stringer("outcome", out).Msg("No datasheet payload captured")
		return models.Record{}
	}

	fields, err := ParseDatasheet(body)
	if err != nil {
		logger.Warn().Err(err).Msg("Discarding malformed datasheet payload")
		return models.Record{}
	}

	rec := models.Record{site.KeyFragrance: name}
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}
