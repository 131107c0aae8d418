package ulvis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFlag_AcceptsAllTruthyForms проверяет нормализацию поля success
func TestFlag_AcceptsAllTruthyForms(t *testing.T) {
	cases := map[string]bool{
		`1`:       true,
		`true`:    true,
		`"1"`:     true,
		`"true"`:  true,
		`"TRUE"`:  true,
		`0`:       false,
		`false`:   false,
		`"0"`:     false,
		`"false"`: false,
		`null`:    false,
		`"yes"`:   false,
	}

	for raw, want := range cases {
		var resp WriteResponse
		require.NoError(t, json.Unmarshal([]byte(`{"success":`+raw+`}`), &resp), raw)
		assert.Equal(t, want, bool(resp.Success), raw)
	}

	var missing WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{}`), &missing))
	assert.False(t, bool(missing.Success))
}

func TestErrorDetail_Shapes(t *testing.T) {
	var obj WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":0,"error":{"msg":"Alias Taken"}}`), &obj))
	assert.Equal(t, "Alias Taken", obj.Error.Message())
	assert.True(t, obj.Error.IsCollision())

	var str WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":0,"error":"invalid url"}`), &str))
	assert.Equal(t, "invalid url", str.Error.Message())
	assert.False(t, str.Error.IsCollision())

	var exists WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":0,"error":{"code":2,"text":"custom already exists"}}`), &exists))
	assert.True(t, exists.Error.IsCollision())
	assert.Contains(t, exists.Error.Message(), "already exists")

	var none WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":0}`), &none))
	assert.Empty(t, none.Error.Message())
}

// TestData_EmptyArray проверяет, что "data": [] не ломает разбор
func TestData_EmptyArray(t *testing.T) {
	var w WriteResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":1,"data":[]}`), &w))
	assert.True(t, bool(w.Success))
	assert.Empty(t, w.Data.URL)

	var r ReadResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":0,"data":[]}`), &r))
	assert.Zero(t, r.Data.Hits)
}

func TestCount_Forms(t *testing.T) {
	var r ReadResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"hits":7,"last":""}}`), &r))
	assert.EqualValues(t, 7, r.Data.Hits)
	assert.Zero(t, r.Data.Last)

	require.NoError(t, json.Unmarshal([]byte(`{"data":{"hits":"-4","last":null}}`), &r))
	assert.Zero(t, r.Data.Hits)
}

// TestCount_OutOfRange значения вне int64 не должны превращаться в отрицательные
func TestCount_OutOfRange(t *testing.T) {
	cases := map[string]int64{
		`3`:                     3,
		`"3.0"`:                 3,
		`1e3`:                   1000,
		`"9223372036854775807"`: 9223372036854775807,
		`"9223372036854775808"`: 0,
		`1e19`:                  0,
		`"1e19"`:                0,
		`"Inf"`:                 0,
		`"-Inf"`:                0,
		`"NaN"`:                 0,
		`"abc"`:                 0,
	}

	for raw, want := range cases {
		var r ReadResponse
		require.NoError(t, json.Unmarshal([]byte(`{"data":{"hits":`+raw+`,"last":`+raw+`}}`), &r), raw)
		assert.EqualValues(t, want, r.Data.Hits, raw)
		assert.EqualValues(t, want, r.Data.Last, raw)
		assert.GreaterOrEqual(t, int64(r.Data.Hits), int64(0), raw)
	}
}
