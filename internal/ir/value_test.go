package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectUnmarshalDropsNull(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"heapData":[1,2],"node":null}`), &obj))

	_, present := obj["node"]
	assert.False(t, present)
	xs, err := obj.IntSlice("heapData")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, xs)
}

func TestObjectUnmarshalRejectsFloat(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`{"index":1.5}`), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are not allowed")
}

func TestArrayUnmarshalRejectsNull(t *testing.T) {
	var arr Array
	err := json.Unmarshal([]byte(`[1,null]`), &arr)
	require.Error(t, err)
}

func TestObjectMarshalJSONSortsKeys(t *testing.T) {
	data, err := json.Marshal(Object{"b": Bool(true), "a": String("x")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":true}`, string(data))
}

func TestObjectIntSliceErrors(t *testing.T) {
	obj := Object{"a": String("x"), "b": Array{String("y")}}

	_, err := obj.IntSlice("missing")
	assert.Error(t, err)
	_, err = obj.IntSlice("a")
	assert.Error(t, err)
	_, err = obj.IntSlice("b")
	assert.Error(t, err)
}
