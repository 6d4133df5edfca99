package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig 缺少数据库或豆包API配置，批处理不会启动
	ErrMissingConfig = errors.New("缺少数据库或豆包API配置")
	// ErrBatchRunning 已有批处理在运行（Redis锁被占用）
	ErrBatchRunning = errors.New("已有批处理正在运行")
)

// UpstreamError 豆包接口调用失败（非2xx或网络错误）
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("豆包接口调用失败: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// MalformedResponseError 模型返回内容不是合法JSON
type MalformedResponseError struct {
	Raw string // 去掉围栏后的原始返回内容
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("模型返回内容无法解析为JSON: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
