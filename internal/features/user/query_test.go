package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, buildListFilter(ListQuery{}, now))

	f := buildListFilter(ListQuery{Keywords: " ann ", Role: "Developer", MaxAge: 3}, now)
	assert.Equal(t, bson.M{"$search": "ann"}, f["$text"])
	assert.Equal(t, "developer", f["role"])
	assert.Equal(t, bson.M{"$gte": now.AddDate(0, 0, -3)}, f["createdOn"])
}

func TestBuildListOptions(t *testing.T) {
	opts := buildListOptions(ListQuery{SortBy: "newest", PageSize: 10, PageNumber: 2})
	assert.Equal(t, bson.D{{Key: "createdOn", Value: -1}}, opts.Sort)
	assert.Equal(t, int64(10), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)

	opts = buildListOptions(ListQuery{SortBy: "bogus"})
	assert.Equal(t, userSorts["givenName"], opts.Sort)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)
}
