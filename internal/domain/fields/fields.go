package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type AgeRating string

const (
	RatingG    AgeRating = "G"
	RatingPG   AgeRating = "PG"
	RatingPG13 AgeRating = "PG-13"
	RatingR    AgeRating = "R"
	RatingNC17 AgeRating = "NC-17"
)

// AgeRatings lists the scale from least to most restrictive content.
var AgeRatings = []AgeRating{RatingG, RatingPG, RatingPG13, RatingR, RatingNC17}

// unknownRank is used for ratings outside the scale, the catalog treats them as PG-13.
const unknownRank = 3

func (r AgeRating) Valid() bool {
	for _, known := range AgeRatings {
		if r == known {
			return true
		}
	}
	return false
}

// Rank returns 1 for G up to 5 for NC-17.
func (r AgeRating) Rank() int {
	for i, known := range AgeRatings {
		if r == known {
			return i + 1
		}
	}
	return unknownRank
}

// Allows reports whether content rated rating is visible under a cap of r.
func (r AgeRating) Allows(rating AgeRating) bool {
	return rating.Rank() <= r.Rank()
}

func (r AgeRating) String() string {
	return string(r)
}

// ID is a backend identifier normalised to a string. Backends send either
// strings (document ids) or numbers.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

func (id ID) String() string {
	return string(id)
}
