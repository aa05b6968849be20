package model

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberKeepsSourceSpelling(t *testing.T) {
	v := Number(1009893223471236096, "1009893223471236096")
	assert.Equal(t, json.Number("1009893223471236096"), v.Interface())

	v = Number(800, " 800")
	assert.Equal(t, json.Number("800"), v.Interface(), "invalid spelling falls back to formatting")

	v = Number(2.5, "+2.5")
	assert.Equal(t, json.Number("2.5"), v.Interface())

	assert.True(t, Number(math.NaN(), "NaN").IsAbsent())
	assert.True(t, Number(math.Inf(1), "inf").IsAbsent())
}

func TestValueInterface(t *testing.T) {
	assert.Equal(t, "", Absent().Interface())
	assert.Equal(t, true, Bool(true).Interface())
	assert.Equal(t, "Bangkok", Text("Bangkok").Interface())
	assert.Equal(t, "False", Bool(false).String())
}

func TestTableCell(t *testing.T) {
	tbl := NewTable([]string{"a", "b", "a"}, []Row{
		{Text("x"), Number(1, "1"), Text("y")},
		{Text("z")},
	})

	i, ok := tbl.ColumnIndex("a")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	assert.True(t, tbl.Cell(1, 1).IsAbsent(), "short rows read as absent")
	assert.Equal(t, []int{0, 1}, tbl.AllRows())
	assert.Equal(t, 2, tbl.Len())
}

func TestPublicListingMarshalKeepsOrder(t *testing.T) {
	l := PublicListing{
		{Name: "name", Value: "Baan <Suan> & Co"},
		{Name: "price", Value: json.Number("800")},
		{Name: "city", Value: "กรุงเทพ"},
		{Name: "stars", Value: ""},
		{Name: "pets", Value: false},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(l))
	assert.Equal(t, `{"name":"Baan <Suan> & Co","price":800,"city":"กรุงเทพ","stars":"","pets":false}`+"\n", buf.String())

	v, ok := l.Get("price")
	require.True(t, ok)
	assert.Equal(t, json.Number("800"), v)
}

func TestChatResponseAlwaysHasSlices(t *testing.T) {
	data, err := json.Marshal(ChatResponse{Filters: []string{}, Listings: []PublicListing{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[],"listings":[]}`, string(data))
}
