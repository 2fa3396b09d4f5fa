package query

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// CompiledQuery is the output of a compilation: query text with named
// parameters, plus metadata describing the projection.
type CompiledQuery struct {
	text           string
	params         map[string]any
	selectNames    []string
	refSelectNames []string
	selectTypes    map[string][]string
}

// Text returns the query text.
func (q *CompiledQuery) Text() string { return q.text }

// String returns the query text.
func (q *CompiledQuery) String() string { return q.text }

// Params returns a copy of the parameter bindings. Every ":name" in the
// text has exactly one entry.
func (q *CompiledQuery) Params() map[string]any { return maps.Clone(q.params) }

// Param returns a single parameter binding.
func (q *CompiledQuery) Param(name string) (any, bool) {
	v, ok := q.params[name]
	return v, ok
}

// SelectNames returns the names of the projected columns, in order.
func (q *CompiledQuery) SelectNames() []string { return slices.Clone(q.selectNames) }

// RefSelectNames returns the names of projected reference nodes. Each
// contributes three columns to SelectNames.
func (q *CompiledQuery) RefSelectNames() []string { return slices.Clone(q.refSelectNames) }

// SelectTypes maps each alias to the archetype short names it may hold.
func (q *CompiledQuery) SelectTypes() map[string][]string {
	result := make(map[string][]string, len(q.selectTypes))
	for k, v := range q.selectTypes {
		result[k] = slices.Clone(v)
	}
	return result
}

type compiledWire struct {
	Text           string              `msgpack:"text"`
	Params         map[string]any      `msgpack:"params"`
	SelectNames    []string            `msgpack:"select_names"`
	RefSelectNames []string            `msgpack:"ref_select_names,omitempty"`
	SelectTypes    map[string][]string `msgpack:"select_types"`
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (q *CompiledQuery) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(compiledWire{
		Text:           q.text,
		Params:         q.params,
		SelectNames:    q.selectNames,
		RefSelectNames: q.refSelectNames,
		SelectTypes:    q.selectTypes,
	})
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (q *CompiledQuery) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w compiledWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	q.text = w.Text
	q.params = w.Params
	if q.params == nil {
		q.params = make(map[string]any)
	}
	q.selectNames = w.SelectNames
	q.refSelectNames = w.RefSelectNames
	q.selectTypes = w.SelectTypes
	return nil
}

// MarshalMsgpack encodes the query for transport to an executor.
func (q *CompiledQuery) MarshalMsgpack() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := q.EncodeMsgpack(enc); err != nil {
		return nil, fmt.Errorf("encoding compiled query: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCompiledQuery decodes a query encoded with MarshalMsgpack. Integer
// parameters decode as int64 and unsigned ones as uint64.
func DecodeCompiledQuery(data []byte) (*CompiledQuery, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	q := &CompiledQuery{}
	if err := q.DecodeMsgpack(dec); err != nil {
		return nil, fmt.Errorf("decoding compiled query: %w", err)
	}
	return q, nil
}
