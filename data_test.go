package apo2cdsp

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/testutil"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3.5, "3.5"},
		{100, "100"},
		{-2.25, "-2.25"},
		{math.Copysign(0, -1), "0"},
		{0, "0"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{-2.5e-8, "-2.5e-8"},
		{1.5e21, "1.5e+21"},
		{123456789012345680000, "123456789012345680000"},
		{float64(float32(3.3)), "3.299999952316284"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.in))
		})
	}
}

func TestData_MarshalJSONKeyOrder(t *testing.T) {
	res, err := Parse(fixtureText(testutil.DefaultBands))
	require.NoError(t, err)

	out, err := json.Marshal(res.Data)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, `{"0":6.5,"1":`), s)
	assert.True(t, strings.HasSuffix(s, `"48":1,"49":1,"1024":0}`), s)

	// "2" must come before "10" even though it sorts after it lexically.
	assert.Less(t, strings.Index(s, `"2":`), strings.Index(s, `"10":`))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]float64(res.Data), decoded)
}

func TestData_MarshalJSONNonNumericKeys(t *testing.T) {
	d := Data{"b": 1, "10": 2, "a": 3, "2": 4}
	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"2":4,"10":2,"a":3,"b":1}`, string(out))
}

func TestData_MarshalJSONRejectsNaN(t *testing.T) {
	_, err := Data{"0": math.NaN()}.MarshalJSON()
	assert.Error(t, err)
}

func TestData_IndentedJSON(t *testing.T) {
	d := Data{"0": 1.5, "10": 100, "1024": 0}
	out, err := d.IndentedJSON()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"0\": 1.5,\n  \"10\": 100,\n  \"1024\": 0\n}", string(out))
}
