// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mvt

import (
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// Version is the vector tile specification version written to layers.
	Version = 2

	DefaultExtent = 4096
)

// Tile field numbers.
const (
	tileLayers protowire.Number = 3

	layerName     protowire.Number = 1
	layerFeatures protowire.Number = 2
	layerKeys     protowire.Number = 3
	layerValues   protowire.Number = 4
	layerExtent   protowire.Number = 5
	layerVersion  protowire.Number = 15

	featureID       protowire.Number = 1
	featureTags     protowire.Number = 2
	featureType     protowire.Number = 3
	featureGeometry protowire.Number = 4

	valueString protowire.Number = 1
	valueFloat  protowire.Number = 2
	valueDouble protowire.Number = 3
	valueInt    protowire.Number = 4
	valueUint   protowire.Number = 5
	valueSint   protowire.Number = 6
	valueBool   protowire.Number = 7
)

// Tag is one attribute of a feature.
type Tag struct {
	Key   string
	Value Value
}

// Feature is a feature before its tags are resolved against a layer's key
// and value tables.
type Feature struct {
	ID       *uint64
	Type     GeomType
	Geometry []uint32
	Tags     []Tag
}

type feature struct {
	id       *uint64
	typ      GeomType
	geometry []uint32
	tags     []uint32
}

// Layer accumulates features and the key and value tables they reference.
// A Layer is not safe for concurrent use.
type Layer struct {
	Name   string
	Extent uint32

	keys     *KeyTable
	values   *ValueTable
	features []feature
}

// NewLayer creates an empty layer.  Keys listed here take the first indexes
// in the order given.
func NewLayer(name string, extent uint32, keys ...string) *Layer {
	return &Layer{
		Name:   name,
		Extent: extent,
		keys:   NewKeyTable(keys...),
		values: NewValueTable(),
	}
}

// AddFeature resolves the feature's tags and appends it to the layer.
func (l *Layer) AddFeature(f Feature) {
	tags := make([]uint32, 0, 2*len(f.Tags))

	for _, t := range f.Tags {
		tags = append(tags, l.keys.Add(t.Key), l.values.Add(t.Value))
	}

	l.features = append(l.features, feature{
		id:       f.ID,
		typ:      f.Type,
		geometry: f.Geometry,
		tags:     tags,
	})
}

func (l *Layer) Len() int { return len(l.features) }

func (l *Layer) Keys() []string { return l.keys.AsArray() }

func (l *Layer) Values() []Value { return l.values.AsArray() }

// Tile is an ordered set of layers.
type Tile struct {
	Layers []*Layer
}

// Marshal encodes the tile as protobuf.
func (t *Tile) Marshal() []byte {
	var b []byte

	for _, l := range t.Layers {
		b = protowire.AppendTag(b, tileLayers, protowire.BytesType)
		b = protowire.AppendBytes(b, l.marshal())
	}

	return b
}

func (l *Layer) marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, layerVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)

	b = protowire.AppendTag(b, layerName, protowire.BytesType)
	b = protowire.AppendString(b, l.Name)

	for _, f := range l.features {
		b = protowire.AppendTag(b, layerFeatures, protowire.BytesType)
		b = protowire.AppendBytes(b, f.marshal())
	}

	for _, k := range l.keys.AsArray() {
		b = protowire.AppendTag(b, layerKeys, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}

	for _, v := range l.values.AsArray() {
		b = protowire.AppendTag(b, layerValues, protowire.BytesType)
		b = protowire.AppendBytes(b, v.marshal())
	}

	extent := l.Extent
	if extent == 0 {
		extent = DefaultExtent
	}

	b = protowire.AppendTag(b, layerExtent, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(extent))

	return b
}

func (f *feature) marshal() []byte {
	var b []byte

	if f.id != nil {
		b = protowire.AppendTag(b, featureID, protowire.VarintType)
		b = protowire.AppendVarint(b, *f.id)
	}

	if len(f.tags) > 0 {
		b = protowire.AppendTag(b, featureTags, protowire.BytesType)
		b = protowire.AppendBytes(b, packed(f.tags))
	}

	b = protowire.AppendTag(b, featureType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.typ))

	if len(f.geometry) > 0 {
		b = protowire.AppendTag(b, featureGeometry, protowire.BytesType)
		b = protowire.AppendBytes(b, packed(f.geometry))
	}

	return b
}

func (v Value) marshal() []byte {
	var b []byte

	switch v.kind {
	case kindString:
		b = protowire.AppendTag(b, valueString, protowire.BytesType)
		b = protowire.AppendString(b, v.s)
	case kindFloat:
		b = protowire.AppendTag(b, valueFloat, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, uint32(v.bits))
	case kindDouble:
		b = protowire.AppendTag(b, valueDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, v.bits)
	case kindInt:
		b = protowire.AppendTag(b, valueInt, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	case kindUint:
		b = protowire.AppendTag(b, valueUint, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	case kindSint:
		b = protowire.AppendTag(b, valueSint, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.bits)))
	case kindBool:
		b = protowire.AppendTag(b, valueBool, protowire.VarintType)
		b = protowire.AppendVarint(b, v.bits)
	}

	return b
}

func packed(values []uint32) []byte {
	b := make([]byte, 0, len(values))

	for _, v := range values {
		b = protowire.AppendVarint(b, uint64(v))
	}

	return b
}
