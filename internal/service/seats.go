package service

import (
	"context"

	"firestrike/internal/config"
	"firestrike/internal/model"
	"firestrike/internal/repository"
)

// lowestFreeSlot 返回 1..maxPlayers 中最小的空闲位置号，没有空位返回 0
func lowestFreeSlot(taken []int, maxPlayers int) int {
	used := make(map[int]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}
	for slot := 1; slot <= maxPlayers; slot++ {
		if _, ok := used[slot]; !ok {
			return slot
		}
	}
	return 0
}

// seatStatusAfter 报名人数变化后的赛事状态，只在报名阶段（open/full）之间切换
func seatStatusAfter(t *model.Tournament, newPlayers int) string {
	if !t.AcceptsRegistration() {
		return t.Status
	}
	if newPlayers >= t.MaxPlayers {
		return model.TournamentStatusFull
	}
	return model.TournamentStatusOpen
}

// pager 统一处理分页参数
type pager struct {
	defaultSize int
	maxSize     int
}

func newPager(cfg *config.Config) pager {
	return pager{defaultSize: cfg.Business.DefaultPageSize, maxSize: cfg.Business.MaxPageSize}
}

func (p pager) page(page, size int) repository.Page {
	if page < 1 {
		page = 1
	}
	def := p.defaultSize
	if def < 1 {
		def = 20
	}
	if size < 1 {
		size = def
	}
	if p.maxSize > 0 && size > p.maxSize {
		size = p.maxSize
	}
	return repository.Page{Page: page, Size: size}
}

// NormalizePage 按配置纠正分页参数，handler 回显分页信息时使用
func NormalizePage(cfg *config.Config, page, size int) repository.Page {
	return newPager(cfg).page(page, size)
}

// afterCommit 事务提交后的收尾（清缓存、发事件）不受请求取消影响
func afterCommit(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
