package idgen

import (
	"fmt"
	"sync"
	"time"
)

// 雪花算法：41 位毫秒时间戳 | 10 位机器 ID | 12 位序列号

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

// 单据号前缀
const (
	PrefixDeposit    = "DEP"
	PrefixWithdraw   = "WDR"
	PrefixEntryFee   = "ENT"
	PrefixLedger     = "LED"
	PrefixUnknownDoc = "DOC"
)

// Snowflake 雪花算法ID生成器
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// NewSnowflake 创建生成器
func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("workerID 必须在 0-%d 之间", maxWorkerID)
	}
	return &Snowflake{workerID: workerID}, nil
}

// Init 初始化默认ID生成器，只有第一次调用生效
func Init(workerID int64) error {
	var err error
	once.Do(func() {
		defaultGenerator, err = NewSnowflake(workerID)
	})
	return err
}

// NextID 生成下一个ID
func NextID() int64 {
	// 未显式 Init 时使用 workerID 1
	_ = Init(1)
	return defaultGenerator.Generate()
}

// Generate 生成ID
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// 序列号用完，等待下一毫秒
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// GenerateNo 生成单据号：前缀 + 年月日时分秒 + 雪花ID后8位，例如 DEP20240115143052_12345678
func GenerateNo(prefix string) string {
	id := NextID()
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s%s%08d", prefix, timestamp, id%100000000)
}

// GenerateReference 按钱包单据类型生成单据号
func GenerateReference(txType string) string {
	switch txType {
	case "deposit":
		return GenerateNo(PrefixDeposit)
	case "withdraw":
		return GenerateNo(PrefixWithdraw)
	case "tournament_payment":
		return GenerateNo(PrefixEntryFee)
	}
	return GenerateNo(PrefixUnknownDoc)
}

// GenerateLedgerNo 生成流水号
func GenerateLedgerNo() string {
	return GenerateNo(PrefixLedger)
}
