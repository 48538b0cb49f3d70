package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"books-admin/internal/shared/model"
)

// BookStats 通过聚合管道计算图书统计
//
// 金额/库存指标与分布只统计 active 图书；总数包含所有状态。
func (s *Store) BookStats(ctx context.Context) (*model.BookStats, error) {
	col := s.col(ColBooks)
	stats := &model.BookStats{
		GenreDistribution: []model.GenreCount{},
		YearDistribution:  []model.YearCount{},
	}

	total, err := col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, wrapError(err)
	}
	stats.TotalBooks = total

	active, err := col.CountDocuments(ctx, bson.D{{Key: "status", Value: model.BookStatusActive}})
	if err != nil {
		return nil, wrapError(err)
	}
	stats.ActiveBooks = active

	// 库存价值 / 均价 / 总库存
	type totalsRow struct {
		InventoryValue float64 `bson:"inventory_value"`
		AveragePrice   float64 `bson:"average_price"`
		TotalStock     int64   `bson:"total_stock"`
	}
	totalsPipe := mongoPipeline(
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: model.BookStatusActive}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "inventory_value", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$multiply", Value: bson.A{"$price", "$stock"}},
			}}}},
			{Key: "average_price", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "total_stock", Value: bson.D{{Key: "$sum", Value: "$stock"}}},
		}}},
	)
	totals, err := aggregate[totalsRow](ctx, col, totalsPipe)
	if err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		stats.TotalInventoryValue = totals[0].InventoryValue
		stats.AveragePrice = totals[0].AveragePrice
		stats.TotalStock = totals[0].TotalStock
	}

	// 分类分布：active，按数量降序
	genrePipe := mongoPipeline(
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: model.BookStatusActive}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$genre"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	)
	genres, err := aggregate[model.GenreCount](ctx, col, genrePipe)
	if err != nil {
		return nil, err
	}
	for _, g := range genres {
		stats.GenreDistribution = append(stats.GenreDistribution, *g)
	}

	// 年份分布：active，最近十个年份，按年份降序
	yearPipe := mongoPipeline(
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: model.BookStatusActive}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$published_year"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 10}},
	)
	years, err := aggregate[model.YearCount](ctx, col, yearPipe)
	if err != nil {
		return nil, err
	}
	for _, y := range years {
		stats.YearDistribution = append(stats.YearDistribution, *y)
	}

	return stats, nil
}

func mongoPipeline(stages ...bson.D) mongo.Pipeline {
	p := make(mongo.Pipeline, 0, len(stages))
	for _, st := range stages {
		p = append(p, st)
	}
	return p
}

// aggregate 执行聚合管道并解码结果
func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline) ([]*T, error) {
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var row T
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		results = append(results, &row)
	}
	return results, cursor.Err()
}
