package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAction(t *testing.T) {
	a, err := NewAction("itemFocus", map[string]any{"ID": 3, "Focus": "later"})
	require.NoError(t, err)
	assert.Equal(t, "itemFocus", a.Name)
	assert.JSONEq(t, `{"ID":3,"Focus":"later"}`, string(a.Args))

	nullArgs, err := NewAction("listView", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(nullArgs.Args))
}

func TestNewAction_Rejects(t *testing.T) {
	_, err := NewAction("", nil)
	assert.ErrorIs(t, err, ErrEmptyActionName)

	_, err = NewAction("bad", make(chan int))
	assert.Error(t, err, "channels cannot be serialized")
}

func TestNewBatch(t *testing.T) {
	_, err := NewBatch()
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = NewBatch(MustAction("a", nil), Action{Name: ""})
	assert.ErrorIs(t, err, ErrEmptyActionName)

	_, err = NewBatch(Action{Name: "broken", Args: json.RawMessage(`{"a":`)})
	assert.Error(t, err)

	b, err := NewBatch(MustAction("first", 1), MustAction("second", 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, b.Names())
}

func TestRequestEncoding(t *testing.T) {
	req := Request{Actions: []Action{MustAction("itemEdit", 7), {Name: "listView"}}}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Actions":[{"Name":"itemEdit","Args":7},{"Name":"listView","Args":null}]}`, string(data))
}

func TestResponseDistinguishesMissingResults(t *testing.T) {
	var missing Response
	require.NoError(t, json.Unmarshal([]byte(`{"Other":[]}`), &missing))
	assert.Nil(t, missing.Results)

	var empty Response
	require.NoError(t, json.Unmarshal([]byte(`{"Results":[]}`), &empty))
	require.NotNil(t, empty.Results)
	assert.Empty(t, *empty.Results)
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &TransportError{Status: 502, Err: errors.New("bad gateway")}
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "502")

	err = &ProtocolError{Reason: "missing Results"}
	assert.ErrorIs(t, err, ErrProtocol)

	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "missing Results", pe.Reason)
}

func TestHTMLOpString(t *testing.T) {
	assert.Equal(t, "replace", HTMLReplace.String())
	assert.Equal(t, "op(99)", HTMLOp(99).String())
}

func TestHTMLOpDecoding(t *testing.T) {
	tests := []struct {
		body string
		want HTMLOp
	}{
		{`{"Operation":1}`, HTMLReplace},
		{`{"Operation":300}`, HTMLOp(300)},
		{`{"Operation":-7}`, HTMLOp(-7)},
		{`{"Operation":99999999999999999999999}`, HTMLOpOutOfRange},
		{`{"Operation":null}`, 0},
		{`{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var u HTMLUpdate
			require.NoError(t, json.Unmarshal([]byte(tt.body), &u))
			assert.Equal(t, tt.want, u.Operation)
		})
	}

	for _, bad := range []string{`{"Operation":"1"}`, `{"Operation":1.5}`, `{"Operation":true}`, `{"Operation":[1]}`} {
		var u HTMLUpdate
		assert.Error(t, json.Unmarshal([]byte(bad), &u), bad)
	}
}
