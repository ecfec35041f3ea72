package utils

import "encoding/json"

// Serialize and Unserialize are the single encoding used for archived run
// records, so stored blobs stay inspectable with plain SQL.

func Serialize(o any) ([]byte, error) {
	return json.Marshal(o)
}

func Unserialize(b []byte, o any) error {
	return json.Unmarshal(b, o)
}
