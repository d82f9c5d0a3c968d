package service

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"maps"
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rushteam/contentkit/pkg/sparse"
)

// queryCache 缓存某个快照上构建好的查询向量。
// 它挂在 Snapshot 上随快照一起替换，因此不需要失效逻辑；缓存的向量只读。
type queryCache = lru.Cache[string, sparse.Vector]

func newQueryCache(size int) *queryCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[string, sparse.Vector](size)
	if err != nil {
		return nil
	}
	return c
}

// queryKey 对 text 与按列名排序后的数值偏好取 sha256，键长固定。
// 每个变长字段前都写入长度，不同输入拼接后不会得到相同的字节串。
func queryKey(text string, numeric map[string]float64) string {
	h := sha256.New()
	buf := make([]byte, 0, 64)
	buf = appendField(buf, text)
	buf = binary.AppendUvarint(buf, uint64(len(numeric)))
	h.Write(buf)
	for _, name := range slices.Sorted(maps.Keys(numeric)) {
		buf = appendField(buf[:0], name)
		buf = strconv.AppendFloat(buf, numeric[name], 'g', -1, 64)
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func appendField(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// query 构建请求的查询向量，快照开启缓存时优先命中缓存。
func (r *Recommender) query(snap *Snapshot, req Request) (sparse.Vector, error) {
	if snap.queries == nil {
		return snap.Space.Query(req.Text, req.Numeric)
	}
	key := queryKey(req.Text, req.Numeric)
	if v, ok := snap.queries.Get(key); ok {
		r.metrics.observeQueryCache(true)
		return v, nil
	}
	r.metrics.observeQueryCache(false)

	v, err := snap.Space.Query(req.Text, req.Numeric)
	if err != nil {
		return sparse.Vector{}, err
	}
	snap.queries.Add(key, v)
	return v, nil
}
