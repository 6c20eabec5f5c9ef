package cache

import (
	"context"
	"sync"

	"nutriplan-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內快取
// 無 TTL、無淘汰：條目小且以工作階段為生命週期，容量交由行程重啟或
// 明確的 Clear 控制
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*common.AIRecipeResponse
	stats memoryStats
}

// memoryStats 快取統計
type memoryStats struct {
	hits   int64
	misses int64
}

// NewMemoryStore 創建行程內快取
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*common.AIRecipeResponse),
	}
}

// Get 獲取快取值
func (m *MemoryStore) Get(ctx context.Context, fingerprint string) (*common.AIRecipeResponse, error) {
	m.mu.RLock()
	resp, exists := m.store[fingerprint]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		m.stats.misses++
		m.mu.Unlock()
		common.LogDebug("快取未命中",
			zap.String("鍵", fingerprint),
		)
		return nil, nil
	}

	m.mu.Lock()
	m.stats.hits++
	m.mu.Unlock()
	common.LogDebug("快取命中",
		zap.String("鍵", fingerprint),
	)
	return resp, nil
}

// Put 設置快取值，同鍵首次寫入有效
func (m *MemoryStore) Put(ctx context.Context, fingerprint string, resp *common.AIRecipeResponse) error {
	if resp == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 同指紋的併發寫入來自相同輸入，結果等價，保留先到者即可
	if _, exists := m.store[fingerprint]; exists {
		return nil
	}

	m.store[fingerprint] = resp
	common.LogDebug("快取已儲存",
		zap.String("鍵", fingerprint),
		zap.Int("目前容量", len(m.store)),
	)
	return nil
}

// Clear 清空快取
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*common.AIRecipeResponse)
	common.LogInfo("快取已清空",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
	)
	return nil
}

// Size 回傳條目數
func (m *MemoryStore) Size(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// Stats 獲取快取統計信息
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.stats.hits + m.stats.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"hit_ratio": ratio,
	}
}
