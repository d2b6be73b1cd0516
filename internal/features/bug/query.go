package bug

import (
	"strings"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var bugSorts = map[string]bson.D{
	"newest":         {{Key: "createdOn", Value: -1}},
	"oldest":         {{Key: "createdOn", Value: 1}},
	"title":          {{Key: "title", Value: 1}, {Key: "createdOn", Value: -1}},
	"classification": {{Key: "classification", Value: 1}, {Key: "createdOn", Value: -1}},
	"assignedTo":     {{Key: "assignedToUserName", Value: 1}, {Key: "createdOn", Value: -1}},
	"createdBy":      {{Key: "createdBy.fullName", Value: 1}, {Key: "createdOn", Value: -1}},
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func buildListFilter(q ListQuery, now time.Time) (bson.M, error) {
	filter := bson.M{}
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		filter["$text"] = bson.M{"$search": kw}
	}
	if q.Classification != "" {
		c, ok := ParseClassification(q.Classification)
		if !ok {
			return nil, errs.Validation("unknown classification %q", q.Classification)
		}
		filter["classification"] = c
	}
	if r := models.AgeRange(now, q.MaxAge, q.MinAge); r != nil {
		filter["createdOn"] = r
	}
	if q.Closed != nil {
		filter["closed"] = *q.Closed
	}
	return filter, nil
}

func sortFor(q ListQuery) bson.D {
	if sort, ok := bugSorts[q.SortBy]; ok {
		return sort
	}
	return bugSorts["newest"]
}

func buildListOptions(q ListQuery) *options.FindOptions {
	page := models.NewPage(q.PageSize, q.PageNumber)
	return options.Find().
		SetSort(sortFor(q)).
		SetSkip(page.Skip()).
		SetLimit(page.Size)
}
