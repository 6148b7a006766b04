package postgres

import (
	"encoding/json"
	"time"
)

// marshalStrings/unmarshalStrings convert a []string to and from the JSONB columns used
// for Summary.Bullets/Tags, avoiding the extra array-codec registration a
// native TEXT[] column would require under database/sql.
func marshalStrings(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

func unmarshalStrings(raw []byte) ([]string, error) {
	var out []string
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func marshalTimes(v []time.Time) ([]byte, error) {
	if v == nil {
		v = []time.Time{}
	}
	return json.Marshal(v)
}

func unmarshalTimes(raw []byte) ([]time.Time, error) {
	var out []time.Time
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func marshalStringMap(v map[string]string) ([]byte, error) {
	if v == nil {
		v = map[string]string{}
	}
	return json.Marshal(v)
}

func unmarshalStringMap(raw []byte) (map[string]string, error) {
	out := map[string]string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
