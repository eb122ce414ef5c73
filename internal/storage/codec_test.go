package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"lejting/internal/ledger"
	"lejting/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 9, 1, 12, 30, 15, 123456000, time.UTC)

func sampleStore(t *testing.T) *ledger.Store {
	t.Helper()
	s := ledger.New(ledger.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.AddItem("BIKE001", "Mountain Bike", decimal.NewFromFloat(50.0), "High-quality mountain bike for outdoor adventures"))
	require.NoError(t, s.AddItem("CAR001", "Compact Car", decimal.RequireFromString("299.95"), "Fuel-efficient compact car for city driving"))
	return s
}

func assertItemsEqual(t *testing.T, want, got models.Item) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.DailyRate.Equal(got.DailyRate), "daily_rate %s != %s", want.DailyRate, got.DailyRate)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.IsAvailable, got.IsAvailable)
	assert.Equal(t, want.RentedBy, got.RentedBy)
	if want.RentalStart == nil {
		assert.Nil(t, got.RentalStart)
		assert.Nil(t, got.RentalEnd)
		return
	}
	require.NotNil(t, got.RentalStart)
	require.NotNil(t, got.RentalEnd)
	assert.True(t, want.RentalStart.Equal(*got.RentalStart))
	assert.True(t, want.RentalEnd.Equal(*got.RentalEnd))
}

func TestRoundTrip(t *testing.T) {
	s := sampleStore(t)
	_, err := s.RentItem("BIKE001", "Anna Nielsen", 3)
	require.NoError(t, err)

	data, err := Encode(s)
	require.NoError(t, err)

	restored, err := Decode(data)
	require.NoError(t, err)

	want := slices.Collect(s.ListItems(false))
	got := slices.Collect(restored.ListItems(false))
	require.Len(t, got, 2)
	for i := range want {
		assertItemsEqual(t, want[i], got[i])
	}

	assert.Equal(t, s.Counter(), restored.Counter())
	assert.Empty(t, slices.Collect(restored.ListTransactions(false)))
	assert.NotEmpty(t, slices.Collect(s.ListTransactions(true)))
}

func TestEncode_Format(t *testing.T) {
	s := sampleStore(t)
	_, err := s.RentItem("CAR001", "Lars", 2)
	require.NoError(t, err)

	data, err := Encode(s)
	require.NoError(t, err)

	var raw struct {
		Items              map[string]map[string]any `json:"items"`
		TransactionCounter int64                     `json:"transaction_counter"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, int64(2), raw.TransactionCounter)

	bike := raw.Items["BIKE001"]
	assert.Equal(t, "BIKE001", bike["item_id"])
	assert.Equal(t, float64(50), bike["daily_rate"])
	assert.Equal(t, true, bike["is_available"])
	assert.Nil(t, bike["rented_by"])
	assert.Nil(t, bike["rental_start"])
	assert.Contains(t, bike, "rental_end")

	car := raw.Items["CAR001"]
	assert.Equal(t, 299.95, car["daily_rate"])
	assert.Equal(t, "Lars", car["rented_by"])
	assert.Equal(t, "2025-09-01T12:30:15.123456Z", car["rental_start"])
	assert.Equal(t, "2025-09-03T12:30:15.123456Z", car["rental_end"])
}

func TestEncode_PreservesOrder(t *testing.T) {
	s := ledger.New()
	for _, id := range []string{"ZED", "ALPHA", "MID"} {
		require.NoError(t, s.AddItem(id, id, decimal.NewFromInt(1), ""))
	}

	data, err := Encode(s)
	require.NoError(t, err)

	restored, err := Decode(data)
	require.NoError(t, err)

	var ids []string
	for item := range restored.ListItems(false) {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"ZED", "ALPHA", "MID"}, ids)
}

func TestEncode_WritesSpecialCharactersRaw(t *testing.T) {
	s := ledger.New()
	require.NoError(t, s.AddItem("A<&>", "Bord & stole <4>", decimal.RequireFromString("12.5"), "Æble"))

	data, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"A<&>": {`)
	assert.Contains(t, string(data), `"name": "Bord & stole <4>"`)
	assert.Contains(t, string(data), `"description": "Æble"`)
	assert.Contains(t, string(data), `"daily_rate": 12.5,`)
	assert.NotContains(t, string(data), `\u00`)

	restored, err := Decode(data)
	require.NoError(t, err)
	item, err := restored.GetItem("A<&>")
	require.NoError(t, err)
	assert.Equal(t, "Bord & stole <4>", item.Name)
}

func TestEncode_LeavesDecimalJSONDefault(t *testing.T) {
	_, err := Encode(sampleStore(t))
	require.NoError(t, err)

	// остальные пакеты по-прежнему получают decimal в кавычках
	raw, err := json.Marshal(decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.Equal(t, `"150"`, string(raw))
}

func TestDecode_QuotedRate(t *testing.T) {
	s, err := Decode([]byte(`{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": "299.95", "is_available": true}}}`))
	require.NoError(t, err)
	item, err := s.GetItem("A")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("299.95").Equal(item.DailyRate))
}

func TestDecode_EmptyStore(t *testing.T) {
	data, err := Encode(ledger.New())
	require.NoError(t, err)

	s, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(1), s.Counter())
}

func TestDecode_OriginalFormat(t *testing.T) {
	// Written by the earlier tool: float rates, naive timestamps, no counter.
	doc := `{
  "items": {
    "TENT001": {
      "item_id": "TENT001",
      "name": "Camping Tent",
      "daily_rate": 25.0,
      "description": "4-person camping tent, waterproof",
      "is_available": false,
      "rented_by": "Lars Andersen",
      "rental_start": "2025-01-10T09:15:00.250000",
      "rental_end": "2025-01-17T09:15:00.250000"
    },
    "TOOLS001": {
      "item_id": "TOOLS001",
      "name": "Power Drill Set",
      "daily_rate": 75.0,
      "description": "",
      "is_available": true,
      "rented_by": null,
      "rental_start": null,
      "rental_end": null
    }
  }
}`
	s, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Counter())

	tent, err := s.GetItem("TENT001")
	require.NoError(t, err)
	assert.False(t, tent.IsAvailable)
	assert.Equal(t, "Lars Andersen", tent.Renter())
	assert.Equal(t, 2025, tent.RentalStart.Year())
	assert.Equal(t, 250*time.Millisecond, time.Duration(tent.RentalStart.Nanosecond()))
	assert.Equal(t, 7*24*time.Hour, tent.RentalEnd.Sub(*tent.RentalStart))
	assert.True(t, decimal.NewFromInt(25).Equal(tent.DailyRate))

	tools, err := s.GetItem("TOOLS001")
	require.NoError(t, err)
	assert.True(t, tools.IsAvailable)

	txID, err := s.ReturnItem("TENT001")
	require.NoError(t, err)
	assert.Empty(t, txID)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{items:`},
		{name: "null document", doc: `null`},
		{name: "array document", doc: `[]`},
		{name: "string document", doc: `"items"`},
		{name: "empty document", doc: ``},
		{name: "items null", doc: `{"items": null}`},
		{name: "items not object", doc: `{"items": []}`},
		{name: "key mismatch", doc: `{"items": {"A": {"item_id": "B", "name": "x", "daily_rate": 1, "is_available": true}}}`},
		{name: "missing item_id", doc: `{"items": {"A": {"name": "x", "daily_rate": 1, "is_available": true}}}`},
		{name: "missing name", doc: `{"items": {"A": {"item_id": "A", "daily_rate": 1, "is_available": true}}}`},
		{name: "missing rate", doc: `{"items": {"A": {"item_id": "A", "name": "x", "is_available": true}}}`},
		{name: "missing availability", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": 1}}}`},
		{name: "bad rate", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": "lots", "is_available": true}}}`},
		{name: "bad timestamp", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": 1, "is_available": false, "rented_by": "r", "rental_start": "yesterday", "rental_end": "2025-01-01T00:00:00Z"}}}`},
		{name: "half rented", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": 1, "is_available": false, "rented_by": "r"}}}`},
		{name: "available with renter", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": 1, "is_available": true, "rented_by": "r"}}}`},
		{name: "duplicate key", doc: `{"items": {"A": {"item_id": "A", "name": "x", "daily_rate": 1, "is_available": true}, "A": {"item_id": "A", "name": "y", "daily_rate": 1, "is_available": true}}}`},
		{name: "zero counter", doc: `{"items": {}, "transaction_counter": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode([]byte(tt.doc))
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, IsParseError(err), "want *ParseError, got %T: %v", err, err)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	s := sampleStore(t)
	_, err := s.RentItem("BIKE001", "Anna", 3)
	require.NoError(t, err)
	_, err = s.ReturnItem("BIKE001")
	require.NoError(t, err)

	require.NoError(t, Save(s, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, int64(2), loaded.Counter())

	txID, err := loaded.RentItem("CAR001", "Lars", 1)
	require.NoError(t, err)
	assert.Equal(t, "T0002", txID)

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, loaded.RemoveItem("BIKE001"))
		require.NoError(t, Save(loaded, path))

		again, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, again.Len())
		assert.Equal(t, int64(3), again.Counter())
	})
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Absent", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, ErrFileAbsent)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
		assert.False(t, IsParseError(err))
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"items": {"A": `), 0o644))

		_, err := Load(path)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, path, pe.Path)
		assert.NotErrorIs(t, err, ErrFileAbsent)
	})

	t.Run("Directory", func(t *testing.T) {
		_, err := Load(dir)
		var ioe *IOError
		assert.ErrorAs(t, err, &ioe)
	})

	t.Run("SaveIntoMissingDir", func(t *testing.T) {
		err := Save(ledger.New(), filepath.Join(dir, "nope", "data.json"))
		var ioe *IOError
		assert.ErrorAs(t, err, &ioe)
	})
}
