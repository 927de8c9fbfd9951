package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string       { return &s }
func f64Ptr(f float64) *float64     { return &f }
func boolPtr(b bool) *bool          { return &b }
func anyStr(s string) *AnyValue     { return &AnyValue{StringValue: strPtr(s)} }
func anyInt(s string) *AnyValue     { return &AnyValue{IntValue: strPtr(s)} }
func anyDouble(f float64) *AnyValue { return &AnyValue{DoubleValue: f64Ptr(f)} }

func TestAnyValueJSON(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "hello", anyStr("hello").JSON())
	})

	t.Run("int string parses to number", func(t *testing.T) {
		assert.Equal(t, int64(42), anyInt("42").JSON())
	})

	t.Run("unparseable int stays string", func(t *testing.T) {
		assert.Equal(t, "99999999999999999999", anyInt("99999999999999999999").JSON())
	})

	t.Run("double", func(t *testing.T) {
		assert.Equal(t, 1.5, anyDouble(1.5).JSON())
	})

	t.Run("non-finite double is null", func(t *testing.T) {
		assert.Nil(t, anyDouble(math.NaN()).JSON())
		assert.Nil(t, anyDouble(math.Inf(1)).JSON())
	})

	t.Run("bool", func(t *testing.T) {
		v := &AnyValue{BoolValue: boolPtr(true)}
		assert.Equal(t, true, v.JSON())
	})

	t.Run("array recurses", func(t *testing.T) {
		v := &AnyValue{ArrayValue: &ArrayValue{Values: []AnyValue{
			{StringValue: strPtr("a")},
			{IntValue: strPtr("7")},
		}}}
		assert.Equal(t, []interface{}{"a", int64(7)}, v.JSON())
	})

	t.Run("empty value is null", func(t *testing.T) {
		assert.Nil(t, (&AnyValue{}).JSON())
		assert.Nil(t, (*AnyValue)(nil).JSON())
	})
}

func TestGetString(t *testing.T) {
	attrs := []KeyValue{
		{Key: "a", Value: anyStr("first")},
		{Key: "b", Value: anyInt("1")},
		{Key: "a", Value: anyStr("second")},
	}

	t.Run("returns first match", func(t *testing.T) {
		got := GetString(attrs, "a")
		assert.NotNil(t, got)
		assert.Equal(t, "first", *got)
	})

	t.Run("non-string value is nil", func(t *testing.T) {
		assert.Nil(t, GetString(attrs, "b"))
	})

	t.Run("missing key is nil", func(t *testing.T) {
		assert.Nil(t, GetString(attrs, "c"))
	})
}

func TestGetStringArray(t *testing.T) {
	attrs := []KeyValue{
		{Key: "tags", Value: &AnyValue{ArrayValue: &ArrayValue{Values: []AnyValue{
			{StringValue: strPtr("x")},
			{IntValue: strPtr("2")},
			{StringValue: strPtr("y")},
		}}}},
		{Key: "scalar", Value: anyStr("nope")},
	}

	t.Run("keeps strings in order", func(t *testing.T) {
		assert.Equal(t, []string{"x", "y"}, GetStringArray(attrs, "tags"))
	})

	t.Run("non-array is nil", func(t *testing.T) {
		assert.Nil(t, GetStringArray(attrs, "scalar"))
	})

	t.Run("missing is nil", func(t *testing.T) {
		assert.Nil(t, GetStringArray(attrs, "missing"))
	})
}

func TestPrefixedMap(t *testing.T) {
	attrs := []KeyValue{
		{Key: "meta.env", Value: anyStr("prod")},
		{Key: "meta.count", Value: anyInt("3")},
		{Key: "meta.", Value: anyStr("empty suffix dropped")},
		{Key: "other", Value: anyStr("ignored")},
	}

	got := PrefixedMap(attrs, "meta.")
	assert.Equal(t, map[string]interface{}{
		"env":   "prod",
		"count": int64(3),
	}, got)
}

func TestAttributesToMap(t *testing.T) {
	attrs := []KeyValue{
		{Key: "a", Value: anyStr("v")},
		{Key: "b", Value: nil},
	}
	got := AttributesToMap(attrs)
	assert.Equal(t, "v", got["a"])
	assert.Nil(t, got["b"])
	assert.Len(t, got, 2)
}
