package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ── 旧接口业务错误 ──

var (
	ErrLegacyBadFileName = errors.New("文件名不合法")
	ErrLegacyBadData     = errors.New("数据不能为空")
)

// LegacyService 旧版静态 JSON 写盘接口。
// 迁移期保留：把任意负载以缩进 JSON 形式写进公开目录，
// 供仍在读静态文件的旧前端使用。
type LegacyService interface {
	SaveJSON(fileName string, data json.RawMessage) error
}

type legacyService struct {
	publicDir string
	logger    *zap.Logger
}

// NewLegacyService 创建 LegacyService 实例
func NewLegacyService(publicDir string, logger *zap.Logger) LegacyService {
	return &legacyService{publicDir: publicDir, logger: logger}
}

// SaveJSON 将负载写入公开目录下的指定文件。
// 文件名只允许公开目录内的 .json 文件，拒绝路径穿越。
func (s *legacyService) SaveJSON(fileName string, data json.RawMessage) error {
	if fileName == "" || len(data) == 0 {
		if fileName == "" {
			return ErrLegacyBadFileName
		}
		return ErrLegacyBadData
	}
	if !strings.HasSuffix(fileName, ".json") {
		return fmt.Errorf("%w: %s", ErrLegacyBadFileName, fileName)
	}
	// 只接受纯文件名，拒绝任何目录成分
	if filepath.Base(fileName) != fileName || strings.Contains(fileName, "..") {
		return fmt.Errorf("%w: %s", ErrLegacyBadFileName, fileName)
	}

	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrLegacyBadData, err)
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化失败: %w", err)
	}
	pretty = append(pretty, '\n')

	path := filepath.Join(s.publicDir, fileName)
	if err := os.MkdirAll(s.publicDir, 0o755); err != nil {
		s.logger.Error("创建公开目录失败", zap.String("dir", s.publicDir), zap.Error(err))
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		s.logger.Error("写入 JSON 文件失败", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("写入文件失败: %w", err)
	}

	s.logger.Info("写入静态 JSON 文件", zap.String("file", fileName))
	return nil
}
