package metadata

import (
	"encoding/xml"
	"fmt"
	"sort"
)

// Map holds the metadata of one voxel file.
type Map map[string]string

// Clone returns a copy of the map. A nil receiver clones to an empty map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type xmlItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlDoc struct {
	XMLName xml.Name  `xml:"metadata"`
	Items   []xmlItem `xml:"item"`
}

// Encode serializes the map to the sidecar XML form.
// Keys are sorted so output is deterministic.
func Encode(m Map) ([]byte, error) {
	doc := xmlDoc{Items: make([]xmlItem, 0, len(m))}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		doc.Items = append(doc.Items, xmlItem{Name: k, Value: m[k]})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// Decode parses sidecar XML back into a Map.
func Decode(data []byte) (Map, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	m := make(Map, len(doc.Items))
	for _, it := range doc.Items {
		m[it.Name] = it.Value
	}
	return m, nil
}
