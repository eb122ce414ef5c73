// Package storage converts a ledger.Store to and from its JSON data file.
//
// The document holds the item catalog keyed by item id and the transaction
// counter:
//
//	{
//	  "items": {
//	    "BIKE001": {"item_id": "BIKE001", "name": "Mountain Bike", "daily_rate": 50, ...}
//	  },
//	  "transaction_counter": 2
//	}
//
// Transactions are not part of the document; a decoded store starts with an
// empty history.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lejting/internal/ledger"
	"lejting/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultDataFile is used when no data file is configured.
const DefaultDataFile = "lejting_data.json"

// timestamp layouts accepted on decode, most specific first. The offset-less
// forms are what Python's isoformat writes for naive datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

type document struct {
	Items              itemRecords `json:"items"`
	TransactionCounter *int64      `json:"transaction_counter,omitempty"`
}

type itemRecord struct {
	ItemID      *string          `json:"item_id"`
	Name        *string          `json:"name"`
	DailyRate   *json.Number     `json:"daily_rate"`
	Description *string          `json:"description"`
	IsAvailable *bool            `json:"is_available"`
	RentedBy    *string          `json:"rented_by"`
	RentalStart *string          `json:"rental_start"`
	RentalEnd   *string          `json:"rental_end"`
}

// itemRecords keeps the document order of the items object.
type itemRecords []itemRecord

func (r itemRecords) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rec := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(*rec.ItemID)
		if err != nil {
			return nil, err
		}
		val, err := marshalRaw(rec)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw is json.Marshal without HTML escaping, so ids and names like
// "A<&>" are written as typed.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (r *itemRecords) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("items: expected object, got null")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("items: expected object, got %v", tok)
	}

	var out itemRecords
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var rec itemRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("item %q: %w", key, err)
		}
		if rec.ItemID == nil {
			return fmt.Errorf("item %q: missing item_id", key)
		}
		if *rec.ItemID != key {
			return fmt.Errorf("item %q: item_id %q does not match its key", key, *rec.ItemID)
		}
		out = append(out, rec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Encode renders the store as an indented JSON document.
func Encode(s *ledger.Store) ([]byte, error) {
	doc := document{Items: itemRecords{}}
	for item := range s.ListItems(false) {
		doc.Items = append(doc.Items, toRecord(item))
	}
	counter := s.Counter()
	doc.TransactionCounter = &counter

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode rebuilds a store from a JSON document. A missing counter defaults
// to 1. Any structural problem is reported as a *ParseError.
func Decode(data []byte, opts ...ledger.Option) (*ledger.Store, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Err: errors.New("document is not a JSON object")}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	items := make([]models.Item, 0, len(doc.Items))
	for _, rec := range doc.Items {
		item, err := fromRecord(rec)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		items = append(items, item)
	}

	counter := models.FirstSequence
	if doc.TransactionCounter != nil {
		counter = *doc.TransactionCounter
	}

	s, err := ledger.Restore(items, counter, opts...)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return s, nil
}

func toRecord(item models.Item) itemRecord {
	id := item.ID
	name := item.Name
	rate := json.Number(item.DailyRate.String())
	desc := item.Description
	avail := item.IsAvailable
	return itemRecord{
		ItemID:      &id,
		Name:        &name,
		DailyRate:   &rate,
		Description: &desc,
		IsAvailable: &avail,
		RentedBy:    item.RentedBy,
		RentalStart: formatTimestamp(item.RentalStart),
		RentalEnd:   formatTimestamp(item.RentalEnd),
	}
}

func fromRecord(rec itemRecord) (models.Item, error) {
	id := *rec.ItemID
	switch {
	case rec.Name == nil:
		return models.Item{}, fmt.Errorf("item %q: missing name", id)
	case rec.DailyRate == nil:
		return models.Item{}, fmt.Errorf("item %q: missing daily_rate", id)
	case rec.IsAvailable == nil:
		return models.Item{}, fmt.Errorf("item %q: missing is_available", id)
	}

	rate, err := decimal.NewFromString(rec.DailyRate.String())
	if err != nil {
		return models.Item{}, fmt.Errorf("item %q: daily_rate: %w", id, err)
	}

	item := models.Item{
		ID:          id,
		Name:        *rec.Name,
		DailyRate:   rate,
		IsAvailable: *rec.IsAvailable,
		RentedBy:    rec.RentedBy,
	}
	if rec.Description != nil {
		item.Description = *rec.Description
	}

	if item.RentalStart, err = parseTimestamp(rec.RentalStart); err != nil {
		return models.Item{}, fmt.Errorf("item %q: rental_start: %w", id, err)
	}
	if item.RentalEnd, err = parseTimestamp(rec.RentalEnd); err != nil {
		return models.Item{}, fmt.Errorf("item %q: rental_end: %w", id, err)
	}
	return item, nil
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}

func parseTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, *s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognised timestamp " + *s)
}
