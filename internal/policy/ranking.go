package policy

import (
	"math"
	"sort"
	"time"

	"The_Connection/internal/model"
)

// HotScore upvotes / max(1, 创建至今的整小时数)
func HotScore(upvotes int64, createdAt, now time.Time) float64 {
	hours := math.Floor(now.Sub(createdAt).Hours())
	if hours < 1 {
		hours = 1
	}
	return float64(upvotes) / hours
}

// SortPosts 按 mode 原地排序。入参须按到达顺序（id 升序）排列，分数相同时保持该顺序。
func SortPosts(posts []model.Post, mode model.PostSort, now time.Time) {
	switch mode {
	case model.SortTop:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Upvotes > posts[j].Upvotes
		})
	case model.SortHot:
		scores := make(map[uint64]float64, len(posts))
		for i := range posts {
			scores[posts[i].ID] = HotScore(posts[i].Upvotes, posts[i].CreatedAt, now)
		}
		sort.SliceStable(posts, func(i, j int) bool {
			return scores[posts[i].ID] > scores[posts[j].ID]
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

// Limit 截断到 n 条，n<=0 表示不限
func Limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

const earthRadiusKm = 6371.0

// DistanceKm 两点间球面距离（haversine）
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// NearbyEvents 过滤出地图可见且在半径内的活动，按距离由近到远
func NearbyEvents(events []model.Event, lat, lng, radiusKm float64) []model.Event {
	type item struct {
		e    model.Event
		dist float64
	}
	var items []item
	for _, e := range events {
		if !e.ShowOnMap || e.Latitude == nil || e.Longitude == nil {
			continue
		}
		d := DistanceKm(lat, lng, *e.Latitude, *e.Longitude)
		if d <= radiusKm {
			items = append(items, item{e: e, dist: d})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].dist < items[j].dist })
	out := make([]model.Event, 0, len(items))
	for _, it := range items {
		out = append(out, it.e)
	}
	return out
}
