package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
	Skip  string   `json:"-"`
	Plain bool
}

func TestIsFalsy(t *testing.T) {
	cases := map[string]bool{
		`null`:    true,
		`false`:   true,
		`0`:       true,
		`-0`:      true,
		`0.0`:     true,
		`0e10`:    true,
		`""`:      true,
		` "" `:    true,
		``:        true,
		`true`:    false,
		`1`:       false,
		`-0.5`:    false,
		`" "`:     false,
		`"0"`:     false,
		`[]`:      false,
		`{}`:      false,
		`"false"`: false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, IsFalsy(json.RawMessage(raw)), "IsFalsy(%q)", raw)
	}
}

func TestReconcileMergesTopLevelFields(t *testing.T) {
	defaults := sample{Name: "default", Tags: []string{"a"}, Count: 3, Plain: true}
	out, err := Reconcile([]byte(`{"name":"","tags":["x","y"],"count":0,"Plain":false,"extra":1}`), defaults, []string{"name", "count"})
	require.NoError(t, err)
	assert.Equal(t, "default", out.Data.Name, "falsy required field keeps default")
	assert.Equal(t, 3, out.Data.Count)
	assert.Equal(t, []string{"x", "y"}, out.Data.Tags)
	assert.False(t, out.Data.Plain, "non-required fields take the stored value even when falsy")
	assert.Equal(t, json.RawMessage(`1`), out.Extra["extra"])
	assert.Empty(t, out.Fallbacks)
}

func TestReconcileDoesNotMutateDefaultSlices(t *testing.T) {
	defaults := sample{Tags: []string{"a"}}
	out, err := Reconcile([]byte(`{"tags":["b","c"]}`), defaults, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, defaults.Tags)
	assert.Equal(t, []string{"b", "c"}, out.Data.Tags)
}

func TestReconcileReportsUndecodableFields(t *testing.T) {
	out, err := Reconcile([]byte(`{"count":"three","name":"ok"}`), sample{Count: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Data.Count)
	assert.Equal(t, "ok", out.Data.Name)
	require.Len(t, out.Fallbacks, 1)
	assert.Equal(t, "count", out.Fallbacks[0].Field)
}

func TestReconcileRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `"x"`, `{`, ``} {
		out, err := Reconcile([]byte(raw), sample{Name: "d"}, nil)
		require.ErrorIs(t, err, ErrNotObject, raw)
		assert.Equal(t, "d", out.Data.Name)
	}
}

func TestEncodeMergesExtras(t *testing.T) {
	raw, err := Encode(sample{Name: "n"}, map[string]json.RawMessage{
		"extra": json.RawMessage(`{"k":"v"}`),
		"name":  json.RawMessage(`"shadowed"`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"n","tags":null,"count":0,"Plain":false,"extra":{"k":"v"}}`, string(raw))

	plain, err := Encode(sample{Name: "n"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"n","tags":null,"count":0,"Plain":false}`, string(plain))
}
