package models

import (
	"encoding/json"
	"strconv"
)

// FlagKind discriminates the decoded shape of a playlist flag.
type FlagKind int

const (
	FlagUnknown FlagKind = iota
	FlagBool
	FlagInt
)

// FlagValue holds the playlist "flag" field, which the server serializes
// either as a boolean or as an integer depending on version. It is decoded
// defensively instead of assuming one shape; unrecognized payloads keep the
// raw bytes for debugging.
type FlagValue struct {
	Kind FlagKind
	Bool bool
	Int  int64
	Raw  string
}

// Set reports whether the flag is truthy in either representation.
func (f FlagValue) Set() bool {
	switch f.Kind {
	case FlagBool:
		return f.Bool
	case FlagInt:
		return f.Int != 0
	default:
		return false
	}
}

func (f *FlagValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlagValue{Kind: FlagBool, Bool: b}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlagValue{Kind: FlagInt, Int: n}
		return nil
	}
	*f = FlagValue{Kind: FlagUnknown, Raw: string(data)}
	return nil
}

func (f FlagValue) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FlagBool:
		return json.Marshal(f.Bool)
	case FlagInt:
		return json.Marshal(f.Int)
	default:
		return []byte("null"), nil
	}
}

func (f FlagValue) String() string {
	switch f.Kind {
	case FlagBool:
		return strconv.FormatBool(f.Bool)
	case FlagInt:
		return strconv.FormatInt(f.Int, 10)
	default:
		return f.Raw
	}
}

// Playlist is a cached library playlist.
type Playlist struct {
	ID     string
	Name   string
	Owner  string
	Items  int
	Type   string
	ArtURL string
	Flag   FlagValue
}
