package models

// BatchRequest 批处理请求结构体
type BatchRequest struct {
	Limit int `json:"limit"` // 本次最多处理的原始记录条数，缺省为3
}
