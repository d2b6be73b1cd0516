package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const DefaultPageSize = 5

// Page is a 1-based page request.
type Page struct {
	Size   int64
	Number int64
}

func NewPage(size, number int64) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	if number < 1 {
		number = 1
	}
	return Page{Size: size, Number: number}
}

func (p Page) Skip() int64 {
	return (p.Number - 1) * p.Size
}

// AgeRange converts maxAge/minAge in days into a range on a timestamp
// field. maxAge keeps records newer than that many days, minAge older ones.
// Returns nil when neither bound is set.
func AgeRange(now time.Time, maxAgeDays, minAgeDays int) bson.M {
	r := bson.M{}
	if maxAgeDays > 0 {
		r["$gte"] = now.AddDate(0, 0, -maxAgeDays)
	}
	if minAgeDays > 0 {
		r["$lt"] = now.AddDate(0, 0, -minAgeDays)
	}
	if len(r) == 0 {
		return nil
	}
	return r
}
