package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	apperrors "rumor-trust-system/pkg/errors"
)

// Generator 匿名投票指纹生成器
// 同一(voterID, evidenceID)必然得到同一指纹，去重只依赖指纹唯一性
type Generator struct {
	salt string
}

// New 盐值为空直接拒绝，不允许退回任何默认盐值
func New(salt string) (*Generator, error) {
	if salt == "" {
		return nil, apperrors.New(apperrors.KindConfiguration, "fingerprint salt is not configured", nil)
	}
	return &Generator{salt: salt}, nil
}

// Token 对 voterID:salt:evidenceID 做单向哈希，输出不可逆推身份
func (g *Generator) Token(voterID string, evidenceID uint64) string {
	data := fmt.Sprintf("%s:%s:%d", voterID, g.salt, evidenceID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
