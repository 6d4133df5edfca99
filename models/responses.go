package models

// 单条处理结果状态
const (
	BatchItemSuccess = "success"
	BatchItemError   = "error"
)

// BatchItemResult 批处理中单条记录的处理结果
type BatchItemResult struct {
	ID       int64     `json:"id"`
	Date     string    `json:"date"`
	Status   string    `json:"status"` // success / error
	AIResult *AIResult `json:"ai_result,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// BatchResponse 批处理响应结构体
// 只要批处理本身跑完就返回success=true，单条失败记录在results里单独标注。
type BatchResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}
