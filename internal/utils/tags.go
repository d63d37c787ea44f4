package utils

import "encoding/json"

// Tags are stored in a single TEXT column as a JSON array of strings. The
// encoded form is stable so a list written at create time reads back in the
// same order.

// EncodeTags serializes a tag list for storage. A nil list yields nil so the
// column stays NULL, distinguishing "no tags supplied" from an empty list.
func EncodeTags(tags []string) (*string, error) {
	if tags == nil {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// DecodeTags parses the stored form back into a tag list. A NULL column or
// corrupt payload decodes to nil rather than failing the read, matching how
// the original data is tolerated.
func DecodeTags(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(*raw), &tags); err != nil {
		return nil
	}
	return tags
}
