package memstore

import (
	"context"
	"sort"

	"books-admin/internal/shared/model"
)

// BookStats 内存聚合统计，语义与 mongostore.BookStats 对齐
func (s *Store) BookStats(ctx context.Context) (*model.BookStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.BookStats{
		GenreDistribution: []model.GenreCount{},
		YearDistribution:  []model.YearCount{},
	}

	genreCounts := map[model.Genre]int64{}
	yearCounts := map[int]int64{}
	var activePrices float64

	for _, b := range s.books {
		stats.TotalBooks++
		if b.Status != model.BookStatusActive {
			continue
		}
		stats.ActiveBooks++
		stats.TotalInventoryValue += b.Price * float64(b.Stock)
		stats.TotalStock += int64(b.Stock)
		activePrices += b.Price
		genreCounts[b.Genre]++
		yearCounts[b.PublishedYear]++
	}

	if stats.ActiveBooks > 0 {
		stats.AveragePrice = activePrices / float64(stats.ActiveBooks)
	}

	for g, c := range genreCounts {
		stats.GenreDistribution = append(stats.GenreDistribution, model.GenreCount{Genre: g, Count: c})
	}
	sort.Slice(stats.GenreDistribution, func(i, j int) bool {
		if stats.GenreDistribution[i].Count != stats.GenreDistribution[j].Count {
			return stats.GenreDistribution[i].Count > stats.GenreDistribution[j].Count
		}
		return stats.GenreDistribution[i].Genre < stats.GenreDistribution[j].Genre
	})

	for y, c := range yearCounts {
		stats.YearDistribution = append(stats.YearDistribution, model.YearCount{Year: y, Count: c})
	}
	// 年份降序，最近十个年份
	sort.Slice(stats.YearDistribution, func(i, j int) bool {
		return stats.YearDistribution[i].Year > stats.YearDistribution[j].Year
	})
	if len(stats.YearDistribution) > 10 {
		stats.YearDistribution = stats.YearDistribution[:10]
	}

	return stats, nil
}
