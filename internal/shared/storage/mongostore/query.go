package mongostore

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"books-admin/internal/shared/storage"
)

// fieldMap API 字段名 → bson 字段名
var fieldMap = map[string]string{
	"id":            "_id",
	"title":         "title",
	"author":        "author",
	"genre":         "genre",
	"isbn":          "isbn",
	"description":   "description",
	"price":         "price",
	"stock":         "stock",
	"status":        "status",
	"publishedYear": "published_year",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

func bsonField(apiField string) string {
	if f, ok := fieldMap[apiField]; ok {
		return f
	}
	return apiField
}

// buildFilter 将查询描述符的 Filter+Search 翻译为 Mongo 过滤文档
func buildFilter(q storage.BookQuery) bson.D {
	var clauses bson.A

	for _, c := range q.Filter {
		field := bsonField(c.Field)
		switch {
		case c.Contains != "":
			clauses = append(clauses, bson.D{{Key: field, Value: containsRegex(c.Contains)}})
		case c.EqNum != nil:
			clauses = append(clauses, bson.D{{Key: field, Value: *c.EqNum}})
		case c.GTE != nil || c.LTE != nil:
			rng := bson.D{}
			if c.GTE != nil {
				rng = append(rng, bson.E{Key: "$gte", Value: *c.GTE})
			}
			if c.LTE != nil {
				rng = append(rng, bson.E{Key: "$lte", Value: *c.LTE})
			}
			clauses = append(clauses, bson.D{{Key: field, Value: rng}})
		default:
			clauses = append(clauses, bson.D{{Key: field, Value: c.Eq}})
		}
	}

	if !q.Search.Empty() {
		var or bson.A
		for _, f := range q.Search.Fields {
			or = append(or, bson.D{{Key: bsonField(f), Value: containsRegex(q.Search.Term)}})
		}
		clauses = append(clauses, bson.D{{Key: "$or", Value: or}})
	}

	if len(clauses) == 0 {
		return bson.D{}
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

// containsRegex 大小写不敏感的子串匹配，检索词做正则转义
func containsRegex(term string) bson.D {
	return bson.D{
		{Key: "$regex", Value: regexp.QuoteMeta(term)},
		{Key: "$options", Value: "i"},
	}
}

// findOptions 将排序和分页翻译为 FindOptions
func findOptions(q storage.BookQuery) *options.FindOptionsBuilder {
	opts := options.Find()

	if len(q.Sort) > 0 {
		sort := bson.D{}
		for _, s := range q.Sort {
			dir := 1
			if s.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: bsonField(s.Field), Value: dir})
		}
		opts.SetSort(sort)
	}

	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	return opts
}
