package user

import (
	"strings"
	"time"

	"issue-tracker/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var userSorts = map[string]bson.D{
	"givenName":  {{Key: "givenName", Value: 1}, {Key: "familyName", Value: 1}, {Key: "createdOn", Value: 1}},
	"familyName": {{Key: "familyName", Value: 1}, {Key: "givenName", Value: 1}, {Key: "createdOn", Value: 1}},
	"role":       {{Key: "role", Value: 1}, {Key: "givenName", Value: 1}, {Key: "familyName", Value: 1}},
	"newest":     {{Key: "createdOn", Value: -1}},
	"oldest":     {{Key: "createdOn", Value: 1}},
}

func buildListFilter(q ListQuery, now time.Time) bson.M {
	filter := bson.M{}
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		filter["$text"] = bson.M{"$search": kw}
	}
	if role := strings.TrimSpace(q.Role); role != "" {
		filter["role"] = strings.ToLower(role)
	}
	if r := models.AgeRange(now, q.MaxAge, q.MinAge); r != nil {
		filter["createdOn"] = r
	}
	return filter
}

func buildListOptions(q ListQuery) *options.FindOptions {
	sort, ok := userSorts[q.SortBy]
	if !ok {
		sort = userSorts["givenName"]
	}
	page := models.NewPage(q.PageSize, q.PageNumber)
	return options.Find().
		SetSort(sort).
		SetSkip(page.Skip()).
		SetLimit(page.Size).
		SetProjection(bson.M{"password": 0})
}
