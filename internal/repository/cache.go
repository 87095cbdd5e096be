package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// cachedFetcher 读穿缓存：先查缓存，未命中则回源并写回
// 缓存读写失败只记录告警，不影响回源结果
type cachedFetcher struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// fetch 命中时解码到 out；未命中时调用 load（load 负责填充 out）并写回缓存
func (f *cachedFetcher) fetch(ctx context.Context, key string, out interface{}, load func() (interface{}, error)) error {
	if f == nil || f.cache == nil {
		_, err := load()
		return err
	}

	hit, err := f.cache.GetJSON(ctx, key, out)
	if err != nil {
		f.logger.Warn("读取缓存失败，直接请求上游", zap.String("key", key), zap.Error(err))
	} else if hit {
		return nil
	}

	v, err := load()
	if err != nil {
		return err
	}

	if err := f.cache.SetJSON(ctx, key, v, f.ttl); err != nil {
		f.logger.Warn("写入缓存失败", zap.String("key", key), zap.Error(err))
	}
	return nil
}
