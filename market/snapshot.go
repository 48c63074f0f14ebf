package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Snapshot 一条 L2 全量快照：成对的 bids/asks 档位。
type Snapshot struct {
	Instrument string
	Bids       []Level
	Asks       []Level
}

var instrumentKeys = []string{"token_id", "tokenId", "asset_id", "assetId"}

// DecodeSnapshot 解析 L2 快照消息。缺少标的 ID 或 bids/asks 不是数组时返回 ok=false；
// 单个不成对的档位会被跳过。
func DecodeSnapshot(raw []byte) (Snapshot, bool) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Snapshot{}, false
	}
	payload := msg
	for _, key := range []string{"payload", "data"} {
		p, ok := msg[key]
		if !ok {
			continue
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(p, &inner); err == nil && len(inner) > 0 {
			payload = inner
			break
		}
	}
	id := instrumentID(msg)
	if id == "" {
		id = instrumentID(payload)
	}
	if id == "" {
		return Snapshot{}, false
	}
	bids, okB := decodeLevels(payload["bids"])
	asks, okA := decodeLevels(payload["asks"])
	if !okB || !okA {
		return Snapshot{}, false
	}
	return Snapshot{Instrument: id, Bids: bids, Asks: asks}, true
}

func instrumentID(fields map[string]json.RawMessage) string {
	for _, key := range instrumentKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if s := strings.TrimSpace(id); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return ""
}

func decodeLevels(raw json.RawMessage) ([]Level, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	out := make([]Level, 0, len(rows))
	for _, row := range rows {
		if lvl, ok := decodeLevel(row); ok {
			out = append(out, lvl)
		}
	}
	return out, true
}

func decodeLevel(row json.RawMessage) (Level, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(row, &pair); err == nil {
		if len(pair) < 2 {
			return Level{}, false
		}
		px, ok1 := decodeNumber(pair[0])
		sz, ok2 := decodeNumber(pair[1])
		return validLevel(px, sz, ok1 && ok2)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(row, &obj); err != nil {
		return Level{}, false
	}
	pxRaw, ok1 := obj["price"]
	szRaw, ok2 := obj["size"]
	if !ok1 || !ok2 {
		return Level{}, false
	}
	px, ok1 := decodeNumber(pxRaw)
	sz, ok2 := decodeNumber(szRaw)
	return validLevel(px, sz, ok1 && ok2)
}

// validLevel 价格必须为正且有限，数量必须有限；"NaN"/"Inf" 之类的档位被丢弃。
func validLevel(px, sz float64, ok bool) (Level, bool) {
	if !ok || !isFinite(px) || !isFinite(sz) || px <= 0 {
		return Level{}, false
	}
	return Level{Price: px, Size: sz}, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// decodeNumber 兼容数字与字符串形式的数字。
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
